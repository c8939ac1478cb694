package ports

import "context"

// MetricRecord is the durable bookkeeping row for one computed bundle.
type MetricRecord struct {
	MetricName string
	SlicerName string
	Constraint string
	FileRoot   string
	OutFile    string
}

// Registry records what was computed, for later discovery. Optional: the
// engine runs without one attached.
type Registry interface {
	// RecordMetric registers a computed bundle and returns its row ID.
	// Re-recording the same FileRoot updates the existing row.
	RecordMetric(ctx context.Context, rec MetricRecord) (int64, error)
	// RecordSummary attaches a named summary statistic to a metric row.
	RecordSummary(ctx context.Context, metricID int64, summaryName string, value float64) error
}
