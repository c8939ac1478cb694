// Package slicers partitions a visit table into slices: each slice is a
// membership index set into the table plus a descriptive point. A slicer is
// set up once per compatible group of bundles and then iterated in a fixed,
// repeatable order.
package slicers

import (
	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
)

// Slice is one partition unit: the row indices belonging to it and the
// point describing it.
type Slice struct {
	Indices []int
	Point   skymaps.Point
}

// Slicer is a polymorphic partitioning scheme.
type Slicer interface {
	// Name returns the slicer type name.
	Name() string
	// Columns lists the data columns the slicer itself needs.
	Columns() []string
	// CacheSize is the membership-set cache capacity the evaluator should
	// use for this slicer; 0 disables caching.
	CacheSize() int
	// NeedsFieldData reports whether Setup requires the auxiliary field
	// table.
	NeedsFieldData() bool
	// Setup initializes the slicer against a visit table. fieldData is nil
	// unless NeedsFieldData. Map providers annotate each slice point.
	Setup(rows *table.Table, fieldData *table.Table, maps []skymaps.Provider) error
	// NumSlices returns the slice count. Valid after Setup.
	NumSlices() int
	// At returns slice i. Iteration order over [0, NumSlices) is the
	// slicer's defined order and must be deterministic and repeatable.
	At(i int) Slice
	// Equal reports whether another slicer is the same type with the same
	// configuration. Two differently-configured instances of the same type
	// are not equal.
	Equal(other Slicer) bool
}

func annotate(point skymaps.Point, maps []skymaps.Provider) {
	for _, m := range maps {
		m.Annotate(point)
	}
}
