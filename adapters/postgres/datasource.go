// Package postgres adapts a Postgres survey database to the engine's
// DataSource port. The filter constraint is passed through as a SQL WHERE
// fragment, matching how survey runs store their visit tables.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"skymetrics/domain/table"
	"skymetrics/internal/errors"
	"skymetrics/ports"
)

// DataSource queries visit and field tables from Postgres.
type DataSource struct {
	db *sqlx.DB
	// FieldTable is the auxiliary per-field table; defaults to "fields".
	FieldTable string
}

// Open connects to the database and verifies the connection.
func Open(url string) (*DataSource, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, errors.Wrap(errors.DatabaseError(err.Error()), "failed to connect to survey database")
	}
	return &DataSource{db: db, FieldTable: "fields"}, nil
}

// NewDataSource wraps an existing connection.
func NewDataSource(db *sqlx.DB) *DataSource {
	return &DataSource{db: db, FieldTable: "fields"}
}

// Close releases the connection pool.
func (s *DataSource) Close() error {
	return s.db.Close()
}

// Query fetches the requested columns for one constraint as a table.
// An empty result carries the NO_MATCHING_DATA code; an unknown column
// carries COLUMN_UNAVAILABLE.
func (s *DataSource) Query(ctx context.Context, constraint string, columns []string, opts ports.QueryOptions) (*table.Table, error) {
	if len(columns) == 0 {
		return nil, errors.InvalidInput("query requires at least one column")
	}
	tableName := opts.Table
	if tableName == "" {
		tableName = "visits"
	}
	query := BuildQuery(constraint, columns, tableName, opts.DistinctKey, opts.GroupBy)

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		if isUndefinedColumn(err) {
			return nil, errors.WithCode(errors.CodeColumnUnavailable,
				fmt.Errorf("query %q: %w", query, err))
		}
		return nil, errors.Wrapf(errors.DatabaseError(err.Error()), "query %q failed", query)
	}
	defer rows.Close()

	data := make([][]float64, len(columns))
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, errors.Wrap(err, "row scan failed")
		}
		for i := range columns {
			data[i] = append(data[i], toFloat(vals[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration failed")
	}
	if len(data[0]) == 0 {
		return nil, errors.NoMatchingData(constraint)
	}

	out := table.New()
	for i, name := range columns {
		if err := out.AddColumn(name, data[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// QueryFields fetches the auxiliary field table for slicers that need it.
func (s *DataSource) QueryFields(ctx context.Context, constraint string) (*table.Table, error) {
	return s.Query(ctx, constraint, []string{"fieldID", "fieldRA", "fieldDec"},
		ports.QueryOptions{Table: s.FieldTable})
}

// BuildQuery assembles the SELECT for one constraint. Exported so the
// query shape is testable without a live database.
func BuildQuery(constraint string, columns []string, tableName, distinctKey, groupBy string) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if distinctKey != "" {
		sb.WriteString("DISTINCT ON (" + quoteIdent(distinctKey) + ") ")
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(" FROM " + quoteIdent(tableName))
	if constraint != "" {
		sb.WriteString(" WHERE " + constraint)
	}
	if groupBy != "" {
		sb.WriteString(" GROUP BY " + quoteIdent(groupBy))
	}
	if distinctKey != "" {
		sb.WriteString(" ORDER BY " + quoteIdent(distinctKey))
	}
	return sb.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, ``) + `"`
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case []byte:
		var f sql.NullFloat64
		if err := f.Scan(string(val)); err == nil && f.Valid {
			return f.Float64
		}
	}
	return math.NaN()
}

func isUndefinedColumn(err error) bool {
	if err == nil {
		return false
	}
	// lib/pq reports undefined_column as SQLSTATE 42703.
	return strings.Contains(err.Error(), "42703") ||
		strings.Contains(strings.ToLower(err.Error()), "does not exist")
}
