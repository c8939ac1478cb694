package table

import (
	"fmt"
	"sort"
)

// Table is the canonical in-memory batch of survey visits: a set of named
// float64 columns of equal length. All metric evaluation, stacking and
// slicing operates on a single Table per query.
type Table struct {
	names []string
	cols  [][]float64
	index map[string]int
	nrows int
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// FromColumns creates a table from a set of named columns. Columns are
// added in sorted name order so that construction is deterministic.
func FromColumns(cols map[string][]float64) (*Table, error) {
	t := New()
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := t.AddColumn(name, cols[name]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn adds a named column, overwriting any existing column with the
// same name in place. Overwrite-in-place is the contract stackers rely on.
func (t *Table) AddColumn(name string, values []float64) error {
	if t.nrows > 0 && len(values) != t.nrows {
		return fmt.Errorf("column %q has %d rows, table has %d", name, len(values), t.nrows)
	}
	if idx, ok := t.index[name]; ok {
		t.cols[idx] = values
		return nil
	}
	if len(t.names) == 0 {
		t.nrows = len(values)
	}
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	t.cols = append(t.cols, values)
	return nil
}

// Column returns the data for a named column.
func (t *Table) Column(name string) ([]float64, bool) {
	idx, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[idx], true
}

// Has reports whether a named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.nrows
}

// Select returns a new table holding the rows at the given indices, in the
// given order. Out-of-range indices are an error.
func (t *Table) Select(indices []int) (*Table, error) {
	out := New()
	out.nrows = len(indices)
	for i, name := range t.names {
		src := t.cols[i]
		dst := make([]float64, len(indices))
		for j, idx := range indices {
			if idx < 0 || idx >= t.nrows {
				return nil, fmt.Errorf("row index %d out of range (table has %d rows)", idx, t.nrows)
			}
			dst[j] = src[idx]
		}
		out.index[name] = len(out.names)
		out.names = append(out.names, name)
		out.cols = append(out.cols, dst)
	}
	return out, nil
}

// MustColumn returns a named column or panics. Intended for metrics which
// have already declared the column as required.
func (t *Table) MustColumn(name string) []float64 {
	col, ok := t.Column(name)
	if !ok {
		panic(fmt.Sprintf("required column %q missing from table", name))
	}
	return col
}
