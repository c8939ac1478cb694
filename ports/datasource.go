// Package ports defines the collaborator interfaces the sweep engine
// consumes. Adapters implement them; the engine never depends on a
// concrete data store.
package ports

import (
	"context"

	"skymetrics/domain/table"
)

// QueryOptions tune a visit query.
type QueryOptions struct {
	// Table is the source table to query.
	Table string
	// DistinctKey, when set, deduplicates rows on this column.
	DistinctKey string
	// GroupBy, when set, groups rows on this column.
	GroupBy string
}

// DataSource supplies the visit tables the engine sweeps over.
//
// Query returns an error carrying the NO_MATCHING_DATA code when the
// constraint matches no rows (non-fatal, the caller skips the constraint)
// and COLUMN_UNAVAILABLE when a requested column does not exist (fatal for
// that constraint only).
type DataSource interface {
	Query(ctx context.Context, constraint string, columns []string, opts QueryOptions) (*table.Table, error)
}

// FieldSource supplies the auxiliary per-field table needed by slicers
// that declare NeedsFieldData. Data sources that can serve it implement
// this alongside DataSource.
type FieldSource interface {
	QueryFields(ctx context.Context, constraint string) (*table.Table, error)
}
