package slicers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
)

func visitRows(t *testing.T, cols map[string][]float64) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns(cols)
	require.NoError(t, err)
	return tbl
}

func TestUniSlicerSingleSlice(t *testing.T) {
	rows := visitRows(t, map[string][]float64{"x": {1, 2, 3}})
	s := NewUniSlicer()
	assert.Equal(t, 0, s.NumSlices(), "no slices before setup")

	require.NoError(t, s.Setup(rows, nil, nil))
	require.Equal(t, 1, s.NumSlices())
	assert.Equal(t, []int{0, 1, 2}, s.At(0).Indices)
}

func TestUniSlicerEqual(t *testing.T) {
	assert.True(t, NewUniSlicer().Equal(NewUniSlicer()))
	assert.False(t, NewUniSlicer().Equal(NewOneDSlicer("x", 10)))
}

func TestOneDSlicerBinning(t *testing.T) {
	rows := visitRows(t, map[string][]float64{"x": {0, 1, 2, 3, 4}})
	s := NewOneDSlicer("x", 4)
	require.NoError(t, s.Setup(rows, nil, nil))
	require.Equal(t, 4, s.NumSlices())

	assert.Equal(t, []int{0}, s.At(0).Indices)
	assert.Equal(t, []int{1}, s.At(1).Indices)
	assert.Equal(t, []int{2}, s.At(2).Indices)
	// The top edge value belongs to the last bin, not a phantom fifth bin.
	assert.Equal(t, []int{3, 4}, s.At(3).Indices)
}

func TestOneDSlicerBinEdgesInPoints(t *testing.T) {
	rows := visitRows(t, map[string][]float64{"x": {0, 4}})
	s := NewOneDSlicer("x", 2)
	require.NoError(t, s.Setup(rows, nil, nil))

	p0 := s.At(0).Point
	assert.Equal(t, 0.0, p0["binLeft"])
	assert.Equal(t, 2.0, p0["binRight"])
	p1 := s.At(1).Point
	assert.Equal(t, 2.0, p1["binLeft"])
	assert.Equal(t, 4.0, p1["binRight"])
}

func TestOneDSlicerSkipsNaNRows(t *testing.T) {
	rows := visitRows(t, map[string][]float64{"x": {0, math.NaN(), 1}})
	s := NewOneDSlicer("x", 2)
	require.NoError(t, s.Setup(rows, nil, nil))

	total := 0
	for i := 0; i < s.NumSlices(); i++ {
		total += len(s.At(i).Indices)
	}
	assert.Equal(t, 2, total, "NaN rows belong to no bin")
}

func TestOneDSlicerConstantColumn(t *testing.T) {
	rows := visitRows(t, map[string][]float64{"x": {5, 5, 5}})
	s := NewOneDSlicer("x", 3)
	require.NoError(t, s.Setup(rows, nil, nil))
	assert.Equal(t, []int{0, 1, 2}, s.At(0).Indices, "a degenerate range puts every row in the first bin")
}

func TestOneDSlicerMissingColumn(t *testing.T) {
	rows := visitRows(t, map[string][]float64{"x": {1}})
	s := NewOneDSlicer("y", 2)
	assert.Error(t, s.Setup(rows, nil, nil))
}

func TestOneDSlicerSetupIsRepeatable(t *testing.T) {
	rows := visitRows(t, map[string][]float64{"x": {3, 1, 4, 1, 5, 9, 2, 6}})
	a := NewOneDSlicer("x", 4)
	b := NewOneDSlicer("x", 4)
	require.NoError(t, a.Setup(rows, nil, nil))
	require.NoError(t, b.Setup(rows, nil, nil))

	require.Equal(t, a.NumSlices(), b.NumSlices())
	for i := 0; i < a.NumSlices(); i++ {
		assert.Equal(t, a.At(i).Indices, b.At(i).Indices)
	}
}

func TestOneDSlicerEqual(t *testing.T) {
	assert.True(t, NewOneDSlicer("x", 10).Equal(NewOneDSlicer("x", 10)))
	assert.False(t, NewOneDSlicer("x", 10).Equal(NewOneDSlicer("x", 20)))
	assert.False(t, NewOneDSlicer("x", 10).Equal(NewOneDSlicer("y", 10)))
}

func fieldTables(t *testing.T) (*table.Table, *table.Table) {
	t.Helper()
	rows := visitRows(t, map[string][]float64{
		"fieldID": {2, 0, 2, 1, 0, 2},
	})
	fields := visitRows(t, map[string][]float64{
		"fieldID":  {1, 0, 2, 3},
		"fieldRA":  {0.1, 0.0, 0.2, 0.3},
		"fieldDec": {-0.1, 0.0, 0.1, 0.2},
	})
	return rows, fields
}

func TestFieldSlicerGroupsByField(t *testing.T) {
	rows, fields := fieldTables(t)
	s := NewFieldSlicer("fieldID", 10)
	require.NoError(t, s.Setup(rows, fields, nil))

	// One slice per field-table row, ordered by field ID.
	require.Equal(t, 4, s.NumSlices())
	assert.Equal(t, []int{1, 4}, s.At(0).Indices)    // field 0
	assert.Equal(t, []int{3}, s.At(1).Indices)       // field 1
	assert.Equal(t, []int{0, 2, 5}, s.At(2).Indices) // field 2
	assert.Empty(t, s.At(3).Indices, "unvisited fields get empty membership")

	p := s.At(2).Point
	assert.Equal(t, 2.0, p["fieldID"])
	assert.Equal(t, 0.2, p["ra"])
	assert.Equal(t, 0.1, p["dec"])
}

func TestFieldSlicerRequiresFieldData(t *testing.T) {
	rows, _ := fieldTables(t)
	s := NewFieldSlicer("fieldID", 10)
	assert.True(t, s.NeedsFieldData())
	assert.Error(t, s.Setup(rows, nil, nil))
}

func TestFieldSlicerCacheSize(t *testing.T) {
	assert.Equal(t, 25, NewFieldSlicer("fieldID", 25).CacheSize())
	assert.Equal(t, 0, NewFieldSlicer("fieldID", 0).CacheSize())
}

func TestFieldSlicerEqual(t *testing.T) {
	assert.True(t, NewFieldSlicer("fieldID", 10).Equal(NewFieldSlicer("fieldID", 10)))
	assert.False(t, NewFieldSlicer("fieldID", 10).Equal(NewFieldSlicer("fieldID", 20)))
	assert.False(t, NewFieldSlicer("fieldID", 10).Equal(NewFieldSlicer("obsField", 10)))
}

func TestSlicerPointsAnnotatedByMaps(t *testing.T) {
	rows, fields := fieldTables(t)
	s := NewFieldSlicer("fieldID", 0)
	maps := []skymaps.Provider{&skymaps.UniformMap{Key: "dust", Value: 0.05}}
	require.NoError(t, s.Setup(rows, fields, maps))

	for i := 0; i < s.NumSlices(); i++ {
		assert.Equal(t, 0.05, s.At(i).Point["dust"])
	}
}
