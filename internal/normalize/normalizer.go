package normalize

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfold/stocketl/internal/model"
	"github.com/quantfold/stocketl/internal/tabular"
)

// Normalizer maps raw feed tables into canonical records.
type Normalizer struct {
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Normalizer.
func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger, now: time.Now}
}

// Normalize converts one source's raw table into canonical records sorted
// by (symbol, date). An unrecognized sourceID is a hard failure
// (*UnknownSourceError). The input table is not modified.
func (n *Normalizer) Normalize(raw tabular.Table, sourceID string) ([]model.Record, error) {
	spec, ok := sourceSpecs[sourceID]
	if !ok {
		return nil, &UnknownSourceError{Source: sourceID}
	}

	cols := resolveColumns(raw, spec)
	processedAt := n.now().UTC()

	records := make([]model.Record, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		rec, err := buildRecord(row, cols, spec, sourceID, processedAt)
		if err != nil {
			return nil, fmt.Errorf("normalize %s row %d: %w", sourceID, i+1, err)
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Symbol != records[j].Symbol {
			return records[i].Symbol < records[j].Symbol
		}
		return records[i].Date.Before(records[j].Date)
	})

	n.logger.Debug("normalized source table",
		"source", sourceID,
		"rows", len(records),
	)
	return records, nil
}

// columnMap holds resolved canonical-name -> column index positions.
type columnMap map[string]int

func resolveColumns(t tabular.Table, spec sourceSpec) columnMap {
	cols := columnMap{}
	for i, name := range t.Columns {
		if canonical, ok := spec.aliases[name]; ok {
			if _, taken := cols[canonical]; !taken {
				cols[canonical] = i
			}
		}
	}
	return cols
}

func (c columnMap) cell(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func buildRecord(row []string, cols columnMap, spec sourceSpec, sourceID string, processedAt time.Time) (model.Record, error) {
	var rec model.Record

	rawDate := cols.cell(row, "date")
	date, err := parseDate(rawDate, spec.dateLayouts)
	if err != nil {
		return rec, err
	}
	rec.Date = date

	rec.Symbol = cols.cell(row, "symbol")
	if rec.Symbol == "" {
		return rec, fmt.Errorf("missing symbol")
	}

	rec.Open, err = parseNullablePrice(cols.cell(row, "open"), "open")
	if err != nil {
		return rec, err
	}
	rec.High, err = parseNullablePrice(cols.cell(row, "high"), "high")
	if err != nil {
		return rec, err
	}
	rec.Low, err = parseNullablePrice(cols.cell(row, "low"), "low")
	if err != nil {
		return rec, err
	}

	rawClose := cols.cell(row, "close")
	if rawClose == "" {
		return rec, fmt.Errorf("missing close price")
	}
	rec.Close, err = strconv.ParseFloat(rawClose, 64)
	if err != nil {
		return rec, fmt.Errorf("invalid close %q: %w", rawClose, err)
	}

	rec.Volume, err = parseVolume(cols.cell(row, "volume"))
	if err != nil {
		return rec, err
	}

	rec.DataSource = cols.cell(row, "data_source")
	if rec.DataSource == "" {
		rec.DataSource = sourceID
	}

	if ts := cols.cell(row, "extracted_at"); ts != "" {
		if ingested, err := parseTimestamp(ts); err == nil {
			rec.IngestedAt = ingested
		}
	}
	rec.ProcessedAt = processedAt

	rec.DailyChangePct = changePct(rec.Open, rec.Close)
	rec.DailyVolatility = volatility(rec.Open, rec.High, rec.Low)

	return rec, nil
}

func parseDate(value string, layouts []string) (model.Date, error) {
	if value == "" {
		return model.Date{}, fmt.Errorf("missing date")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return model.DateOf(t), nil
		}
	}
	return model.Date{}, fmt.Errorf("unparseable date %q", value)
}

func parseNullablePrice(value, column string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", column, value, err)
	}
	return &f, nil
}

// parseVolume coerces volume to a non-negative integer, substituting 0
// for null. Upstream CSV encoders widen integer columns with nulls to
// floats, so "1234.0" is accepted.
func parseVolume(value string) (*int64, error) {
	if value == "" {
		return model.Int64(0), nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid volume %q: %w", value, err)
	}
	if f < 0 {
		return nil, fmt.Errorf("negative volume %q", value)
	}
	return model.Int64(int64(f)), nil
}

var normalizeTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range normalizeTimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

// changePct computes (close-open)/open*100, rounded to 2 decimals.
// Nil when open is missing or zero.
func changePct(open *float64, close float64) *float64 {
	if open == nil || *open == 0 {
		return nil
	}
	return model.Float64(round2((close - *open) / *open * 100))
}

// volatility computes (high-low)/open*100, rounded to 2 decimals.
// Nil when any input is missing or open is zero.
func volatility(open, high, low *float64) *float64 {
	if open == nil || *open == 0 || high == nil || low == nil {
		return nil
	}
	return model.Float64(round2((*high - *low) / *open * 100))
}

// round2 rounds to 2 decimals through decimal arithmetic so values like
// 4.885 don't drift under binary floating point.
func round2(x float64) float64 {
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}
