package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/quantfold/stocketl/internal/model"
)

// CanonicalColumns is the column order of a canonical (post-normalization)
// table, matching the destination table schema.
var CanonicalColumns = []string{
	"date", "symbol", "open", "high", "low", "close", "volume",
	"data_source", "processed_at", "daily_change_pct", "daily_volatility",
}

// Table is an in-memory tabular dataset with a header.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// ColumnIndex returns the position of the named column, or -1 if absent.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, column name). ok is false when the
// column does not exist or the row is short.
func (t Table) Cell(row int, column string) (value string, ok bool) {
	i := t.ColumnIndex(column)
	if i < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return "", false
	}
	return t.Rows[row][i], true
}

// Read parses a CSV stream with a header row.
func Read(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Table{}, fmt.Errorf("missing header row")
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}

	return Table{Columns: header, Rows: rows}, nil
}

// Write encodes the table as CSV with a header row.
func (t Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Encode returns the CSV encoding of the table.
func (t Table) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromRecords converts canonical records into a table with CanonicalColumns
// order. NULL fields become empty cells.
func FromRecords(records []model.Record) Table {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.Date.String(),
			r.Symbol,
			formatNullableFloat(r.Open),
			formatNullableFloat(r.High),
			formatNullableFloat(r.Low),
			formatFloat(r.Close),
			formatNullableInt(r.Volume),
			r.DataSource,
			r.ProcessedAt.UTC().Format(time.RFC3339),
			formatNullableFloat(r.DailyChangePct),
			formatNullableFloat(r.DailyVolatility),
		}
	}
	return Table{Columns: append([]string(nil), CanonicalColumns...), Rows: rows}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatNullableFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatNullableInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
