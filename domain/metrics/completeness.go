package metrics

import (
	"fmt"
	"math"

	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
	"skymetrics/domain/values"
)

// Bands enumerates the survey filter bands in their canonical order. The
// filter column stores the band index as a numeric code.
var Bands = []string{"u", "g", "r", "i", "z", "y"}

// CompletenessMetric computes, per slice, the per-band completeness (visits
// achieved over visits requested) for each band with a nonzero request,
// plus the joint completeness (the minimum across those bands). Its output
// is a vector per slice; the reduce functions expand it into one scalar
// bundle per band plus "Joint".
type CompletenessMetric struct {
	FilterCol string
	// Requested visits per band, indexed as Bands. Zero entries are
	// excluded from the calculation.
	Requested [6]float64

	bands []int // indices into Bands with Requested > 0
}

func NewCompletenessMetric(filterCol string, requested [6]float64) (*CompletenessMetric, error) {
	if filterCol == "" {
		filterCol = "filter"
	}
	m := &CompletenessMetric{FilterCol: filterCol, Requested: requested}
	for i, n := range requested {
		if n > 0 {
			m.bands = append(m.bands, i)
		}
	}
	if len(m.bands) == 0 {
		return nil, fmt.Errorf("completeness metric needs a requested visit count for at least one band")
	}
	return m, nil
}

func (m *CompletenessMetric) Name() string {
	return "Completeness"
}

func (m *CompletenessMetric) Columns() []string {
	return []string{m.FilterCol}
}

func (m *CompletenessMetric) Kind() values.Kind {
	return values.KindObject
}

func (m *CompletenessMetric) BadValue() interface{} {
	return nil
}

func (m *CompletenessMetric) RequiredMaps() []string {
	return nil
}

// Run returns the per-band completeness values in band order, with the
// joint completeness appended.
func (m *CompletenessMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	filters, ok := rows.Column(m.FilterCol)
	if !ok {
		return nil
	}
	counts := make(map[int]int)
	for _, f := range filters {
		counts[int(f)]++
	}
	out := make([]float64, 0, len(m.bands)+1)
	joint := math.Inf(1)
	for _, band := range m.bands {
		c := float64(counts[band]) / m.Requested[band]
		out = append(out, c)
		if c < joint {
			joint = c
		}
	}
	return append(out, joint)
}

// Reducers returns one reducer per band in canonical order, then "Joint".
// A band with no request reduces to the constant 1: an unrequested band
// never limits the survey.
func (m *CompletenessMetric) Reducers() []Reducer {
	posByBand := make(map[int]int, len(m.bands))
	for pos, band := range m.bands {
		posByBand[band] = pos
	}
	reducers := make([]Reducer, 0, len(Bands)+1)
	for band, bandName := range Bands {
		pos, requested := posByBand[band]
		if !requested {
			reducers = append(reducers, Reducer{
				Name: bandName,
				Fn:   func(val interface{}) float64 { return 1 },
			})
			continue
		}
		reducers = append(reducers, Reducer{
			Name: bandName,
			Fn: func(val interface{}) float64 {
				vec, ok := val.([]float64)
				if !ok || pos >= len(vec) {
					return BadFloat
				}
				return vec[pos]
			},
		})
	}
	reducers = append(reducers, Reducer{
		Name: "Joint",
		Fn: func(val interface{}) float64 {
			vec, ok := val.([]float64)
			if !ok || len(vec) == 0 {
				return BadFloat
			}
			return vec[len(vec)-1]
		},
	})
	return reducers
}
