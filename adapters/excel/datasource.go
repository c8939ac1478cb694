// Package excel adapts a spreadsheet of survey visits to the DataSource
// port, for sweeps over exported data without a database. The first row of
// the sheet holds column names; non-numeric cells become NaN.
package excel

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"skymetrics/domain/table"
	"skymetrics/internal/errors"
	"skymetrics/ports"
)

// DataSource reads visit tables from an Excel workbook. The filter
// constraint selects rows by exact match on a column, written as
// "column=value"; an empty constraint selects every row.
type DataSource struct {
	FilePath string
	// Sheet is the worksheet to read; defaults to the first sheet.
	Sheet string
}

func NewDataSource(filePath string) *DataSource {
	return &DataSource{FilePath: filePath}
}

// Query loads the sheet, filters rows by the constraint and projects the
// requested columns.
func (s *DataSource) Query(ctx context.Context, constraint string, columns []string, opts ports.QueryOptions) (*table.Table, error) {
	f, err := excelize.OpenFile(s.FilePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open workbook %s", s.FilePath)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q", sheet)
	}
	if len(rows) == 0 {
		return nil, errors.NoMatchingData(constraint)
	}

	header := rows[0]
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(name)] = i
	}
	for _, col := range columns {
		if _, ok := colIdx[col]; !ok {
			return nil, errors.ColumnUnavailable(col)
		}
	}

	filterCol, filterVal, filtered, err := parseConstraint(constraint)
	if err != nil {
		return nil, err
	}
	if filtered {
		if _, ok := colIdx[filterCol]; !ok {
			return nil, errors.ColumnUnavailable(filterCol)
		}
	}

	data := make([][]float64, len(columns))
	for _, row := range rows[1:] {
		if filtered && !matches(row, colIdx[filterCol], filterVal) {
			continue
		}
		for i, col := range columns {
			data[i] = append(data[i], cellFloat(row, colIdx[col]))
		}
	}
	if len(columns) > 0 && len(data[0]) == 0 {
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

// parseConstraint splits a "column=value" constraint. Only exact-match
// constraints are supported for spreadsheet sources.
func parseConstraint(constraint string) (col, val string, filtered bool, err error) {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return "", "", false, nil
	}
	parts := strings.SplitN(constraint, "=", 2)
	if len(parts) != 2 {
		return "", "", false, errors.InvalidInput(
			"excel sources support only column=value constraints, got " + constraint)
	}
	col = strings.TrimSpace(parts[0])
	val = strings.Trim(strings.TrimSpace(parts[1]), `'"`)
	return col, val, true, nil
}

func matches(row []string, idx int, want string) bool {
	if idx >= len(row) {
		return false
	}
	cell := strings.TrimSpace(row[idx])
	if cell == want {
		return true
	}
	// Numeric cells may render differently ("1" vs "1.0"); compare parsed.
	a, errA := strconv.ParseFloat(cell, 64)
	b, errB := strconv.ParseFloat(want, 64)
	return errA == nil && errB == nil && a == b
}

func cellFloat(row []string, idx int) float64 {
	if idx >= len(row) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
