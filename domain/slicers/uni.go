package slicers

import (
	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
)

// UniSlicer produces a single slice containing every row: the degenerate
// partitioning used for whole-survey scalars.
type UniSlicer struct {
	slice Slice
	ready bool
}

func NewUniSlicer() *UniSlicer {
	return &UniSlicer{}
}

func (s *UniSlicer) Name() string {
	return "UniSlicer"
}

func (s *UniSlicer) Columns() []string {
	return nil
}

func (s *UniSlicer) CacheSize() int {
	return 0
}

func (s *UniSlicer) NeedsFieldData() bool {
	return false
}

func (s *UniSlicer) Setup(rows *table.Table, fieldData *table.Table, maps []skymaps.Provider) error {
	indices := make([]int, rows.Len())
	for i := range indices {
		indices[i] = i
	}
	point := skymaps.Point{"sid": 0}
	annotate(point, maps)
	s.slice = Slice{Indices: indices, Point: point}
	s.ready = true
	return nil
}

func (s *UniSlicer) NumSlices() int {
	if !s.ready {
		return 0
	}
	return 1
}

func (s *UniSlicer) At(i int) Slice {
	return s.slice
}

func (s *UniSlicer) Equal(other Slicer) bool {
	_, ok := other.(*UniSlicer)
	return ok
}
