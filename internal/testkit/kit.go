// Package testkit provides synthetic survey data and fake collaborators
// for engine tests.
package testkit

import (
	"context"
	"math/rand"

	"skymetrics/domain/metrics"
	"skymetrics/domain/skymaps"
	"skymetrics/domain/table"
	"skymetrics/domain/values"
	"skymetrics/internal/errors"
	"skymetrics/ports"
)

// VisitTable builds a deterministic synthetic visit table with n rows.
// Columns: fieldID (cycling 0..nFields-1), fieldRA/fieldDec (per field),
// airmass, fiveSigmaDepth, filter (band codes 0..5), altitude, night.
func VisitTable(n, nFields int, seed int64) *table.Table {
	rng := rand.New(rand.NewSource(seed))
	fieldID := make([]float64, n)
	ra := make([]float64, n)
	dec := make([]float64, n)
	airmass := make([]float64, n)
	depth := make([]float64, n)
	filter := make([]float64, n)
	altitude := make([]float64, n)
	night := make([]float64, n)
	for i := 0; i < n; i++ {
		f := i % nFields
		fieldID[i] = float64(f)
		ra[i] = float64(f) * 0.3
		dec[i] = -0.5 + float64(f)*0.05
		airmass[i] = 1.0 + rng.Float64()*0.8
		depth[i] = 24.0 + rng.NormFloat64()*0.3
		filter[i] = float64(rng.Intn(6))
		altitude[i] = 0.5 + rng.Float64()
		night[i] = float64(i / nFields)
	}
	t := table.New()
	t.AddColumn("fieldID", fieldID)
	t.AddColumn("fieldRA", ra)
	t.AddColumn("fieldDec", dec)
	t.AddColumn("airmass", airmass)
	t.AddColumn("fiveSigmaDepth", depth)
	t.AddColumn("filter", filter)
	t.AddColumn("altitude", altitude)
	t.AddColumn("night", night)
	return t
}

// FieldTable builds the auxiliary field table matching VisitTable.
func FieldTable(nFields int) *table.Table {
	ids := make([]float64, nFields)
	ra := make([]float64, nFields)
	dec := make([]float64, nFields)
	for i := 0; i < nFields; i++ {
		ids[i] = float64(i)
		ra[i] = float64(i) * 0.3
		dec[i] = -0.5 + float64(i)*0.05
	}
	t := table.New()
	t.AddColumn("fieldID", ids)
	t.AddColumn("fieldRA", ra)
	t.AddColumn("fieldDec", dec)
	return t
}

// FakeDataSource serves pre-built tables per constraint and records the
// queries it saw.
type FakeDataSource struct {
	Tables  map[string]*table.Table
	Fields  *table.Table
	Queries []string
	// MissingColumns simulates a source lacking these columns.
	MissingColumns map[string]bool
}

func NewFakeDataSource() *FakeDataSource {
	return &FakeDataSource{
		Tables:         make(map[string]*table.Table),
		MissingColumns: make(map[string]bool),
	}
}

func (s *FakeDataSource) Query(ctx context.Context, constraint string, columns []string, opts ports.QueryOptions) (*table.Table, error) {
	s.Queries = append(s.Queries, constraint)
	for _, col := range columns {
		if s.MissingColumns[col] {
			return nil, errors.ColumnUnavailable(col)
		}
	}
	t, ok := s.Tables[constraint]
	if !ok || t.Len() == 0 {
		return nil, errors.NoMatchingData(constraint)
	}
	return t, nil
}

func (s *FakeDataSource) QueryFields(ctx context.Context, constraint string) (*table.Table, error) {
	if s.Fields == nil {
		return nil, errors.NoMatchingData(constraint)
	}
	return s.Fields, nil
}

// FakeRegistry records metric and summary rows in memory.
type FakeRegistry struct {
	Metrics   []ports.MetricRecord
	Summaries map[int64]map[string]float64
}

func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{Summaries: make(map[int64]map[string]float64)}
}

func (r *FakeRegistry) RecordMetric(ctx context.Context, rec ports.MetricRecord) (int64, error) {
	for i, existing := range r.Metrics {
		if existing.FileRoot == rec.FileRoot {
			r.Metrics[i] = rec
			return int64(i + 1), nil
		}
	}
	r.Metrics = append(r.Metrics, rec)
	return int64(len(r.Metrics)), nil
}

func (r *FakeRegistry) RecordSummary(ctx context.Context, metricID int64, summaryName string, value float64) error {
	if r.Summaries[metricID] == nil {
		r.Summaries[metricID] = make(map[string]float64)
	}
	r.Summaries[metricID][summaryName] = value
	return nil
}

// CountingMetric wraps a mean computation and counts Run invocations, for
// cache behavior tests.
type CountingMetric struct {
	Col   string
	Calls int
}

func (m *CountingMetric) Name() string                { return "CountingMean " + m.Col }
func (m *CountingMetric) Columns() []string           { return []string{m.Col} }
func (m *CountingMetric) Kind() values.Kind           { return values.KindFloat }
func (m *CountingMetric) BadValue() interface{}       { return metrics.BadFloat }
func (m *CountingMetric) RequiredMaps() []string      { return nil }
func (m *CountingMetric) Reducers() []metrics.Reducer { return nil }

func (m *CountingMetric) Run(rows *table.Table, point skymaps.Point) interface{} {
	m.Calls++
	col, ok := rows.Column(m.Col)
	if !ok || len(col) == 0 {
		return metrics.BadFloat
	}
	sum := 0.0
	for _, v := range col {
		sum += v
	}
	return sum / float64(len(col))
}
