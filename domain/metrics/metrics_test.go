package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skymetrics/domain/table"
	"skymetrics/domain/values"
)

func rowsWith(t *testing.T, col string, data []float64) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns(map[string][]float64{col: data})
	require.NoError(t, err)
	return tbl
}

func runFloat(t *testing.T, m Metric, rows *table.Table) float64 {
	t.Helper()
	val, ok := m.Run(rows, nil).(float64)
	require.True(t, ok, "scalar metrics return float64")
	return val
}

func TestSimpleMetrics(t *testing.T) {
	rows := rowsWith(t, "depth", []float64{1, 2, 3, 4})

	assert.Equal(t, 4.0, runFloat(t, NewCountMetric("depth"), rows))
	assert.InDelta(t, 2.5, runFloat(t, NewMeanMetric("depth"), rows), 1e-12)
	assert.InDelta(t, 2.5, runFloat(t, NewMedianMetric("depth"), rows), 1e-12)
	assert.InDelta(t, 10.0, runFloat(t, NewSumMetric("depth"), rows), 1e-12)
	assert.Equal(t, 1.0, runFloat(t, NewMinMetric("depth"), rows))
	assert.Equal(t, 4.0, runFloat(t, NewMaxMetric("depth"), rows))
	assert.InDelta(t, math.Sqrt(5.0/3.0), runFloat(t, NewRmsMetric("depth"), rows), 1e-12)
}

func TestSimpleMetricsMissingColumnReturnBadValue(t *testing.T) {
	rows := rowsWith(t, "depth", []float64{1, 2})
	for _, m := range []Metric{
		NewCountMetric("nosuch"),
		NewMeanMetric("nosuch"),
		NewMedianMetric("nosuch"),
		NewSumMetric("nosuch"),
		NewMinMetric("nosuch"),
		NewMaxMetric("nosuch"),
		NewRmsMetric("nosuch"),
	} {
		val := runFloat(t, m, rows)
		assert.True(t, math.IsNaN(val), "%s must return its bad value", m.Name())
	}
}

func TestMetricContractDefaults(t *testing.T) {
	m := NewMeanMetric("airmass")
	assert.Equal(t, "Mean airmass", m.Name())
	assert.Equal(t, []string{"airmass"}, m.Columns())
	assert.Equal(t, values.KindFloat, m.Kind())
	assert.Empty(t, m.Reducers())
	assert.Empty(t, m.RequiredMaps())

	bad, ok := m.BadValue().(float64)
	require.True(t, ok)
	assert.True(t, math.IsNaN(bad))
}

func TestPercentileMetric(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i + 1)
	}
	rows := rowsWith(t, "airmass", data)

	p90 := runFloat(t, NewPercentileMetric("airmass", 0.9), rows)
	assert.InDelta(t, 90.0, p90, 1.0)

	p50 := runFloat(t, NewPercentileMetric("airmass", 0.5), rows)
	assert.InDelta(t, 50.0, p50, 1.0)
}

func TestPercentileMetricBadInputs(t *testing.T) {
	rows := rowsWith(t, "airmass", []float64{1, 2, 3})
	assert.True(t, math.IsNaN(runFloat(t, NewPercentileMetric("airmass", 0), rows)))
	assert.True(t, math.IsNaN(runFloat(t, NewPercentileMetric("airmass", 1), rows)))
	assert.True(t, math.IsNaN(runFloat(t, NewPercentileMetric("nosuch", 0.5), rows)))
}

func TestPercentileMetricDoesNotMutateInput(t *testing.T) {
	rows := rowsWith(t, "airmass", []float64{3, 1, 2})
	runFloat(t, NewPercentileMetric("airmass", 0.5), rows)
	col, _ := rows.Column("airmass")
	assert.Equal(t, []float64{3, 1, 2}, col)
}

func TestOutlierFractionMetricNormalish(t *testing.T) {
	// Symmetric data with no 3-sigma outliers: observed 0, expected ~0.0027.
	data := []float64{-2, -1, -1, 0, 0, 0, 1, 1, 2}
	rows := rowsWith(t, "x", data)
	val := runFloat(t, NewOutlierFractionMetric("x", 3), rows)
	assert.InDelta(t, -0.0027, val, 0.001)
}

func TestOutlierFractionMetricDetectsOutliers(t *testing.T) {
	data := []float64{0, 0, 0, 0, 0, 1, -1, 0, 0, 100}
	rows := rowsWith(t, "x", data)
	clean := rowsWith(t, "x", data[:9])

	dirty := runFloat(t, NewOutlierFractionMetric("x", 2), rows)
	base := runFloat(t, NewOutlierFractionMetric("x", 2), clean)
	assert.Greater(t, dirty, base)
}

func TestOutlierFractionMetricDegenerateInputs(t *testing.T) {
	assert.True(t, math.IsNaN(runFloat(t, NewOutlierFractionMetric("x", 3), rowsWith(t, "x", []float64{1, 2}))))
	assert.True(t, math.IsNaN(runFloat(t, NewOutlierFractionMetric("x", 3), rowsWith(t, "x", []float64{5, 5, 5, 5}))))
}

func TestCompletenessMetricRun(t *testing.T) {
	// g requested 2, r requested 4; visits: three g (code 1), one r (code 2).
	m, err := NewCompletenessMetric("filter", [6]float64{0, 2, 4, 0, 0, 0})
	require.NoError(t, err)
	rows := rowsWith(t, "filter", []float64{1, 1, 1, 2})

	out, ok := m.Run(rows, nil).([]float64)
	require.True(t, ok)
	require.Len(t, out, 3, "one value per requested band plus the joint")
	assert.InDelta(t, 1.5, out[0], 1e-12)  // g: 3/2
	assert.InDelta(t, 0.25, out[1], 1e-12) // r: 1/4
	assert.InDelta(t, 0.25, out[2], 1e-12) // joint = min
}

func TestCompletenessMetricRequiresARequest(t *testing.T) {
	_, err := NewCompletenessMetric("filter", [6]float64{})
	assert.Error(t, err)
}

func TestCompletenessMetricMissingColumn(t *testing.T) {
	m, err := NewCompletenessMetric("filter", [6]float64{1, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	rows := rowsWith(t, "other", []float64{1})
	assert.Nil(t, m.Run(rows, nil), "the object bad value is nil")
}

func TestCompletenessMetricReducers(t *testing.T) {
	m, err := NewCompletenessMetric("filter", [6]float64{0, 2, 4, 0, 0, 160})
	require.NoError(t, err)

	reducers := m.Reducers()
	require.Len(t, reducers, 7, "every band reduces, requested or not, plus the joint")
	for i, name := range Bands {
		assert.Equal(t, name, reducers[i].Name)
	}
	assert.Equal(t, "Joint", reducers[6].Name)

	// Run output carries requested bands only (g, r, y) plus the joint.
	vec := []float64{1.5, 0.25, 0.8, 0.25}
	assert.Equal(t, 1.5, reducers[1].Fn(vec))  // g
	assert.Equal(t, 0.25, reducers[2].Fn(vec)) // r
	assert.Equal(t, 0.8, reducers[5].Fn(vec))  // y
	assert.Equal(t, 0.25, reducers[6].Fn(vec)) // Joint

	// Unrequested bands reduce to full completeness.
	assert.Equal(t, 1.0, reducers[0].Fn(vec)) // u
	assert.Equal(t, 1.0, reducers[3].Fn(vec)) // i
	assert.Equal(t, 1.0, reducers[4].Fn(vec)) // z

	assert.True(t, math.IsNaN(reducers[1].Fn("not a vector")))
	assert.True(t, math.IsNaN(reducers[6].Fn([]float64{})))
}

func TestCompletenessMetricKind(t *testing.T) {
	m, err := NewCompletenessMetric("", [6]float64{1, 0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, values.KindObject, m.Kind())
	assert.Equal(t, []string{"filter"}, m.Columns(), "empty column name defaults to filter")
	assert.Nil(t, m.BadValue())
}
