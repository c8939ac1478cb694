package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddColumnOverwritesInPlace(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddColumn("airmass", []float64{1.0, 1.2, 1.4}))
	require.NoError(t, tbl.AddColumn("airmass", []float64{2.0, 2.2, 2.4}))

	col, ok := tbl.Column("airmass")
	require.True(t, ok)
	assert.Equal(t, []float64{2.0, 2.2, 2.4}, col)
	assert.Equal(t, []string{"airmass"}, tbl.Names())
	assert.Equal(t, 3, tbl.Len())
}

func TestAddColumnLengthMismatch(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddColumn("a", []float64{1, 2, 3}))
	assert.Error(t, tbl.AddColumn("b", []float64{1, 2}))
}

func TestFromColumnsDeterministicOrder(t *testing.T) {
	tbl, err := FromColumns(map[string][]float64{
		"zz": {1}, "aa": {2}, "mm": {3},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "mm", "zz"}, tbl.Names())
}

func TestSelect(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddColumn("x", []float64{10, 20, 30, 40}))
	require.NoError(t, tbl.AddColumn("y", []float64{1, 2, 3, 4}))

	sub, err := tbl.Select([]int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Len())
	x, _ := sub.Column("x")
	assert.Equal(t, []float64{40, 20}, x)
	y, _ := sub.Column("y")
	assert.Equal(t, []float64{4, 2}, y)

	_, err = tbl.Select([]int{7})
	assert.Error(t, err)
}

func TestSelectDoesNotAliasSource(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddColumn("x", []float64{1, 2, 3}))
	sub, err := tbl.Select([]int{0, 1})
	require.NoError(t, err)

	x, _ := sub.Column("x")
	x[0] = 99
	orig, _ := tbl.Column("x")
	assert.Equal(t, 1.0, orig[0])
}
