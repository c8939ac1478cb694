// Package metrics defines the metric contract and a set of concrete
// metrics. A metric is evaluated once per slice against the sliced rows
// and the slice point; results that cannot be computed return the metric's
// bad-value sentinel, which the evaluator masks rather than propagating.
package metrics

import (
	"math"

	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
	"skymetrics/domain/values"
)

// Reducer derives a scalar from a complex metric's per-slice output.
type Reducer struct {
	Name string
	Fn   func(val interface{}) float64
}

// Metric is one configured metric evaluation unit.
type Metric interface {
	// Name returns the metric's display name, used to derive file roots
	// and reduce-bundle names.
	Name() string
	// Columns lists the data columns the metric reads.
	Columns() []string
	// Kind declares the storage kind of the metric's results.
	Kind() values.Kind
	// BadValue is the sentinel returned when the metric cannot be
	// computed at a slice.
	BadValue() interface{}
	// RequiredMaps lists map-provider type names the metric needs attached
	// to the slicer. Instantiated via the skymaps registry when absent.
	RequiredMaps() []string
	// Reducers returns the metric's reduce functions, in a fixed order.
	// Empty for simple metrics.
	Reducers() []Reducer
	// Run evaluates the metric on the sliced rows.
	Run(rows *table.Table, point skymaps.Point) interface{}
}

// BadFloat is the default scalar bad-value sentinel. NaN is chosen
// deliberately: masking compares NaN-aware, so a NaN result is always
// recognized as uncomputable.
var BadFloat = math.NaN()

// base carries the shared configuration of the scalar metrics.
type base struct {
	name string
	col  string
}

func (b base) Name() string {
	return b.name
}

func (b base) Columns() []string {
	return []string{b.col}
}

func (b base) Kind() values.Kind {
	return values.KindFloat
}

func (b base) BadValue() interface{} {
	return BadFloat
}

func (b base) RequiredMaps() []string {
	return nil
}

func (b base) Reducers() []Reducer {
	return nil
}
