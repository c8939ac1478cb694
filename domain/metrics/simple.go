package metrics

import (
	"github.com/montanaflynn/stats"

	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
)

// CountMetric counts the visits in each slice.
type CountMetric struct {
	base
}

func NewCountMetric(col string) *CountMetric {
	return &CountMetric{base{name: "Count " + col, col: col}}
}

func (m *CountMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	col, ok := rows.Column(m.col)
	if !ok {
		return BadFloat
	}
	return float64(len(col))
}

// MeanMetric computes the mean of a column per slice.
type MeanMetric struct {
	base
}

func NewMeanMetric(col string) *MeanMetric {
	return &MeanMetric{base{name: "Mean " + col, col: col}}
}

func (m *MeanMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	return statOrBad(rows, m.col, stats.Mean)
}

// MedianMetric computes the median of a column per slice.
type MedianMetric struct {
	base
}

func NewMedianMetric(col string) *MedianMetric {
	return &MedianMetric{base{name: "Median " + col, col: col}}
}

func (m *MedianMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	return statOrBad(rows, m.col, stats.Median)
}

// SumMetric computes the sum of a column per slice.
type SumMetric struct {
	base
}

func NewSumMetric(col string) *SumMetric {
	return &SumMetric{base{name: "Sum " + col, col: col}}
}

func (m *SumMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	return statOrBad(rows, m.col, stats.Sum)
}

// MinMetric computes the minimum of a column per slice.
type MinMetric struct {
	base
}

func NewMinMetric(col string) *MinMetric {
	return &MinMetric{base{name: "Min " + col, col: col}}
}

func (m *MinMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	return statOrBad(rows, m.col, stats.Min)
}

// MaxMetric computes the maximum of a column per slice.
type MaxMetric struct {
	base
}

func NewMaxMetric(col string) *MaxMetric {
	return &MaxMetric{base{name: "Max " + col, col: col}}
}

func (m *MaxMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	return statOrBad(rows, m.col, stats.Max)
}

// RmsMetric computes the sample standard deviation of a column per slice.
type RmsMetric struct {
	base
}

func NewRmsMetric(col string) *RmsMetric {
	return &RmsMetric{base{name: "Rms " + col, col: col}}
}

func (m *RmsMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	return statOrBad(rows, m.col, stats.StandardDeviationSample)
}

func statOrBad(rows *table.Table, col string, fn func(stats.Float64Data) (float64, error)) float64 {
	data, ok := rows.Column(col)
	if !ok || len(data) == 0 {
		return BadFloat
	}
	val, err := fn(stats.Float64Data(data))
	if err != nil {
		return BadFloat
	}
	return val
}
