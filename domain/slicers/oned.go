package slicers

import (
	"fmt"
	"math"

	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
)

// OneDSlicer partitions rows into uniform bins over a single column.
// Slices are ordered by ascending bin edge; a row belongs to the bin whose
// half-open interval [left, right) contains its value, with the last bin
// closed on the right.
type OneDSlicer struct {
	ColName string
	NBins   int

	slices []Slice
	ready  bool
}

func NewOneDSlicer(colName string, nbins int) *OneDSlicer {
	if nbins <= 0 {
		nbins = 10
	}
	return &OneDSlicer{ColName: colName, NBins: nbins}
}

func (s *OneDSlicer) Name() string {
	return "OneDSlicer"
}

func (s *OneDSlicer) Columns() []string {
	return []string{s.ColName}
}

func (s *OneDSlicer) CacheSize() int {
	return 0
}

func (s *OneDSlicer) NeedsFieldData() bool {
	return false
}

func (s *OneDSlicer) Setup(rows *table.Table, fieldData *table.Table, maps []skymaps.Provider) error {
	col, ok := rows.Column(s.ColName)
	if !ok {
		return fmt.Errorf("slicer column %q missing from data", s.ColName)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		// No finite values: every bin is empty over a degenerate range.
		lo, hi = 0, 1
	}
	if lo == hi {
		hi = lo + 1
	}
	width := (hi - lo) / float64(s.NBins)

	s.slices = make([]Slice, s.NBins)
	for i := range s.slices {
		left := lo + float64(i)*width
		point := skymaps.Point{
			"sid":      i,
			"binLeft":  left,
			"binRight": left + width,
		}
		annotate(point, maps)
		s.slices[i] = Slice{Indices: []int{}, Point: point}
	}
	for rowIdx, v := range col {
		if math.IsNaN(v) {
			continue
		}
		bin := int((v - lo) / width)
		if bin == s.NBins { // top edge belongs to the last bin
			bin = s.NBins - 1
		}
		if bin < 0 || bin >= s.NBins {
			continue
		}
		s.slices[bin].Indices = append(s.slices[bin].Indices, rowIdx)
	}
	s.ready = true
	return nil
}

func (s *OneDSlicer) NumSlices() int {
	if !s.ready {
		return 0
	}
	return len(s.slices)
}

func (s *OneDSlicer) At(i int) Slice {
	return s.slices[i]
}

func (s *OneDSlicer) Equal(other Slicer) bool {
	o, ok := other.(*OneDSlicer)
	if !ok {
		return false
	}
	return s.ColName == o.ColName && s.NBins == o.NBins
}
