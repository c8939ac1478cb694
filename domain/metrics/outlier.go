package metrics

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
)

// OutlierFractionMetric measures how heavy-tailed a column is per slice:
// the observed fraction of values beyond NSigma standard deviations of the
// mean, minus the fraction a normal distribution would put there. Zero for
// well-behaved columns, positive for outlier-contaminated ones.
type OutlierFractionMetric struct {
	base
	NSigma float64
}

func NewOutlierFractionMetric(col string, nsigma float64) *OutlierFractionMetric {
	if nsigma <= 0 {
		nsigma = 3
	}
	return &OutlierFractionMetric{
		base:   base{name: "OutlierFraction " + col, col: col},
		NSigma: nsigma,
	}
}

func (m *OutlierFractionMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	col, ok := rows.Column(m.col)
	if !ok || len(col) < 3 {
		return BadFloat
	}
	mean, err := stats.Mean(stats.Float64Data(col))
	if err != nil {
		return BadFloat
	}
	sigma, err := stats.StandardDeviationSample(stats.Float64Data(col))
	if err != nil || sigma == 0 || math.IsNaN(sigma) {
		return BadFloat
	}
	outliers := 0
	for _, v := range col {
		if math.Abs(v-mean) > m.NSigma*sigma {
			outliers++
		}
	}
	observed := float64(outliers) / float64(len(col))

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	expected := 2 * normal.CDF(-m.NSigma)
	return observed - expected
}
