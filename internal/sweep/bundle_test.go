package sweep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skymetrics/domain/metrics"
	"skymetrics/domain/slicers"
	"skymetrics/domain/stackers"
)

func TestBuildFileRoot(t *testing.T) {
	assert.Equal(t, "Mean_airmass_filter_r_OneDSlicer",
		buildFileRoot("Mean airmass", `filter = 'r'`, "OneDSlicer"))
	assert.Equal(t, "Count_night_UniSlicer",
		buildFileRoot("Count night", "", "UniSlicer"))
}

func TestBundleColumnsExcludesStackerOutputs(t *testing.T) {
	b := NewBundle(metrics.NewMedianMetric("zenithDistance"), slicers.NewOneDSlicer("night", 10), "")
	b.Stackers = []stackers.Stacker{stackers.NewZenithDistStacker("altitude")}

	cols := b.Columns()
	assert.ElementsMatch(t, []string{"night", "altitude"}, cols,
		"stacker outputs exist only after stacking and must not be queried")
}

func TestBundleColumnsDeduplicates(t *testing.T) {
	b := NewBundle(metrics.NewMeanMetric("airmass"), slicers.NewOneDSlicer("airmass", 10), "")
	assert.Equal(t, []string{"airmass"}, b.Columns())
}

func TestDictFromListRejectsDuplicateFileRoots(t *testing.T) {
	a := NewBundle(metrics.NewMeanMetric("airmass"), slicers.NewUniSlicer(), "")
	b := NewBundle(metrics.NewMeanMetric("airmass"), slicers.NewUniSlicer(), "")
	_, err := DictFromList([]*Bundle{a, b})
	assert.Error(t, err)

	b.FileRoot = "other"
	dict, err := DictFromList([]*Bundle{a, b})
	require.NoError(t, err)
	assert.Len(t, dict, 2)
}

func TestDictFromListRejectsNil(t *testing.T) {
	a := NewBundle(metrics.NewMeanMetric("airmass"), slicers.NewUniSlicer(), "")
	_, err := DictFromList([]*Bundle{a, nil})
	assert.Error(t, err)
}

func TestNewGroupValidation(t *testing.T) {
	_, err := NewGroup(map[string]*Bundle{}, nil, Options{})
	assert.Error(t, err, "empty collections are a configuration error")

	a := NewBundle(metrics.NewMeanMetric("airmass"), slicers.NewUniSlicer(), "")
	b := NewBundle(metrics.NewMeanMetric("airmass"), slicers.NewUniSlicer(), "")
	_, err = NewGroup(map[string]*Bundle{"a": a, "b": b}, nil, Options{})
	assert.Error(t, err, "two bundles sharing a file root would overwrite each other")

	_, err = NewGroup(map[string]*Bundle{"a": a, "b": nil}, nil, Options{})
	assert.Error(t, err)
}

func TestGroupConstraintsSorted(t *testing.T) {
	a := NewBundle(metrics.NewMeanMetric("airmass"), slicers.NewUniSlicer(), "b-constraint")
	b := NewBundle(metrics.NewCountMetric("airmass"), slicers.NewUniSlicer(), "a-constraint")
	c := NewBundle(metrics.NewMaxMetric("airmass"), slicers.NewUniSlicer(), "a-constraint")

	g, err := NewGroup(map[string]*Bundle{"a": a, "b": b, "c": c}, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-constraint", "b-constraint"}, g.Constraints())
	assert.Equal(t, []string{"a", "b", "c"}, g.Keys())
}
