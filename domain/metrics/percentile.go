package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
)

// PercentileMetric computes an empirical quantile of a column per slice.
type PercentileMetric struct {
	base
	// P is the quantile in (0, 1).
	P float64
}

func NewPercentileMetric(col string, p float64) *PercentileMetric {
	return &PercentileMetric{
		base: base{name: fmt.Sprintf("%gth Percentile %s", p*100, col), col: col},
		P:    p,
	}
}

func (m *PercentileMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	col, ok := rows.Column(m.col)
	if !ok || len(col) == 0 || m.P <= 0 || m.P >= 1 {
		return BadFloat
	}
	sorted := make([]float64, len(col))
	copy(sorted, col)
	sort.Float64s(sorted)
	return stat.Quantile(m.P, stat.Empirical, sorted, nil)
}
