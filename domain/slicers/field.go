package slicers

import (
	"fmt"
	"sort"

	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
)

// FieldSlicer groups visits by the survey field they observed. It needs
// the auxiliary field table to know each field's coordinates, and it
// declares a membership-set cache: overlapping pointings revisit the same
// field repeatedly, so many slices carry identical index sets and an
// expensive metric only needs to run once per distinct set.
type FieldSlicer struct {
	FieldIDCol string
	// CacheCapacity is the evaluator cache size; 0 disables caching.
	CacheCapacity int

	slices []Slice
	ready  bool
}

func NewFieldSlicer(fieldIDCol string, cacheCapacity int) *FieldSlicer {
	if fieldIDCol == "" {
		fieldIDCol = "fieldID"
	}
	return &FieldSlicer{FieldIDCol: fieldIDCol, CacheCapacity: cacheCapacity}
}

func (s *FieldSlicer) Name() string {
	return "FieldSlicer"
}

func (s *FieldSlicer) Columns() []string {
	return []string{s.FieldIDCol}
}

func (s *FieldSlicer) CacheSize() int {
	return s.CacheCapacity
}

func (s *FieldSlicer) NeedsFieldData() bool {
	return true
}

func (s *FieldSlicer) Setup(rows *table.Table, fieldData *table.Table, maps []skymaps.Provider) error {
	if fieldData == nil {
		return fmt.Errorf("field slicer requires the auxiliary field table")
	}
	fieldIDs, ok := fieldData.Column(s.FieldIDCol)
	if !ok {
		return fmt.Errorf("field table missing column %q", s.FieldIDCol)
	}
	fieldRA, _ := fieldData.Column("fieldRA")
	fieldDec, _ := fieldData.Column("fieldDec")

	visitFields, ok := rows.Column(s.FieldIDCol)
	if !ok {
		return fmt.Errorf("visit data missing column %q", s.FieldIDCol)
	}
	byField := make(map[float64][]int)
	for rowIdx, id := range visitFields {
		byField[id] = append(byField[id], rowIdx)
	}

	// One slice per field in the field table, ordered by field ID so the
	// iteration order is stable across runs. Fields with no visits get
	// empty membership and are masked by the evaluator.
	order := make([]int, len(fieldIDs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return fieldIDs[order[a]] < fieldIDs[order[b]] })

	s.slices = make([]Slice, 0, len(order))
	for sid, fi := range order {
		point := skymaps.Point{
			"sid":     sid,
			"fieldID": fieldIDs[fi],
		}
		if fieldRA != nil {
			point["ra"] = fieldRA[fi]
		}
		if fieldDec != nil {
			point["dec"] = fieldDec[fi]
		}
		annotate(point, maps)
		indices := byField[fieldIDs[fi]]
		if indices == nil {
			indices = []int{}
		}
		s.slices = append(s.slices, Slice{Indices: indices, Point: point})
	}
	s.ready = true
	return nil
}

func (s *FieldSlicer) NumSlices() int {
	if !s.ready {
		return 0
	}
	return len(s.slices)
}

func (s *FieldSlicer) At(i int) Slice {
	return s.slices[i]
}

func (s *FieldSlicer) Equal(other Slicer) bool {
	o, ok := other.(*FieldSlicer)
	if !ok {
		return false
	}
	return s.FieldIDCol == o.FieldIDCol && s.CacheCapacity == o.CacheCapacity
}
