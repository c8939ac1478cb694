// Package sqlite implements the results registry on a local SQLite file:
// durable bookkeeping of every metric computed in a run and the summary
// statistics attached to it.
package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"skymetrics/internal/errors"
	"skymetrics/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	metric_name TEXT NOT NULL,
	slicer_name TEXT NOT NULL,
	constraint_text TEXT NOT NULL,
	file_root TEXT NOT NULL,
	out_file TEXT,
	recorded_at TIMESTAMP NOT NULL,
	UNIQUE(run_id, file_root)
);
CREATE TABLE IF NOT EXISTS summaries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	metric_id INTEGER NOT NULL REFERENCES metrics(id),
	summary_name TEXT NOT NULL,
	value REAL NOT NULL,
	recorded_at TIMESTAMP NOT NULL
);`

// Registry records computed metrics and summaries in SQLite.
type Registry struct {
	db    *sqlx.DB
	runID string
}

// Open creates or opens the registry database and starts a new run row.
func Open(path string) (*Registry, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(errors.DatabaseError(err.Error()), "failed to open results registry")
	}
	return newRegistry(db)
}

// NewRegistry wraps an existing connection, bootstrapping the schema.
func NewRegistry(db *sqlx.DB) (*Registry, error) {
	return newRegistry(db)
}

func newRegistry(db *sqlx.DB) (*Registry, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to bootstrap registry schema")
	}
	runID := uuid.New().String()
	if _, err := db.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`, runID, time.Now().UTC()); err != nil {
		return nil, errors.Wrap(err, "failed to record run")
	}
	return &Registry{db: db, runID: runID}, nil
}

// RunID returns the identifier of the current run.
func (r *Registry) RunID() string {
	return r.runID
}

// Close releases the database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// RecordMetric registers a computed bundle, updating the existing row when
// the same file root is recorded twice in one run.
func (r *Registry) RecordMetric(ctx context.Context, rec ports.MetricRecord) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metrics (run_id, metric_name, slicer_name, constraint_text, file_root, out_file, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, file_root) DO UPDATE SET
			out_file = excluded.out_file,
			recorded_at = excluded.recorded_at`,
		r.runID, rec.MetricName, rec.SlicerName, rec.Constraint, rec.FileRoot, rec.OutFile, time.Now().UTC())
	if err != nil {
		return 0, errors.Wrap(err, "failed to record metric")
	}
	// Resolve by lookup so the ID stays stable when the same file root is
	// re-recorded.
	var id int64
	if err := r.db.GetContext(ctx, &id,
		`SELECT id FROM metrics WHERE run_id = ? AND file_root = ?`, r.runID, rec.FileRoot); err != nil {
		return 0, errors.Wrap(err, "failed to resolve metric row")
	}
	return id, nil
}

// RecordSummary attaches a summary statistic to a metric row.
func (r *Registry) RecordSummary(ctx context.Context, metricID int64, summaryName string, value float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO summaries (metric_id, summary_name, value, recorded_at)
		VALUES (?, ?, ?, ?)`,
		metricID, summaryName, value, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "failed to record summary")
	}
	return nil
}
