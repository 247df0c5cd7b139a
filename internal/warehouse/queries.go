package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/quantfold/stocketl/internal/model"
)

// Inconsistency is one cross-source close-price disagreement found in the
// destination table.
type Inconsistency struct {
	Date         model.Date
	Symbol       string
	PriceDiffPct float64
	SourceCount  int
}

// inconsistencySQL finds (date, symbol) groups where distinct sources
// disagree on close by more than the given relative fraction.
const inconsistencySQL = `
WITH stats AS (
  SELECT date, symbol,
         MIN(close) AS min_close,
         MAX(close) AS max_close,
         COUNT(DISTINCT data_source) AS source_count
  FROM %s
  WHERE date >= CURRENT_DATE - $1::int
  GROUP BY date, symbol
  HAVING COUNT(DISTINCT data_source) > 1
)
SELECT date, symbol,
       (max_close - min_close) / min_close * 100 AS price_diff_pct,
       source_count
FROM stats
WHERE (max_close - min_close) / min_close > $2
ORDER BY price_diff_pct DESC`

// Inconsistencies reports cross-source disagreements over the trailing
// window of days. minDiff is a fraction (0.02 = 2%).
func (c *Client) Inconsistencies(ctx context.Context, table string, days int, minDiff float64) ([]Inconsistency, error) {
	rows, err := c.pool.Query(ctx, fmt.Sprintf(inconsistencySQL, table), days, minDiff)
	if err != nil {
		return nil, fmt.Errorf("query inconsistencies: %w", err)
	}
	defer rows.Close()

	var out []Inconsistency
	for rows.Next() {
		var (
			ts time.Time
			i  Inconsistency
		)
		if err := rows.Scan(&ts, &i.Symbol, &i.PriceDiffPct, &i.SourceCount); err != nil {
			return nil, fmt.Errorf("scan inconsistency: %w", err)
		}
		i.Date = model.DateOf(ts)
		out = append(out, i)
	}
	return out, rows.Err()
}

// RollingAverage is one day's moving-average set for a symbol.
type RollingAverage struct {
	Date       model.Date
	Symbol     string
	ClosePrice float64
	MA5        *float64
	MA10       *float64
	MA20       *float64
	MA50       *float64
}

const rollingAveragesSQL = `
WITH daily AS (
  SELECT date, symbol, MAX(close) AS close_price
  FROM %s
  WHERE symbol = ANY($1)
    AND date >= CURRENT_DATE - $2::int
  GROUP BY date, symbol
)
SELECT date, symbol, close_price,
  AVG(close_price) OVER (PARTITION BY symbol ORDER BY date ROWS BETWEEN 4 PRECEDING AND CURRENT ROW)  AS ma_5d,
  AVG(close_price) OVER (PARTITION BY symbol ORDER BY date ROWS BETWEEN 9 PRECEDING AND CURRENT ROW)  AS ma_10d,
  AVG(close_price) OVER (PARTITION BY symbol ORDER BY date ROWS BETWEEN 19 PRECEDING AND CURRENT ROW) AS ma_20d,
  AVG(close_price) OVER (PARTITION BY symbol ORDER BY date ROWS BETWEEN 49 PRECEDING AND CURRENT ROW) AS ma_50d
FROM daily
ORDER BY symbol, date`

// RollingAverages returns 5/10/20/50-day moving averages per symbol over
// the trailing window of days.
func (c *Client) RollingAverages(ctx context.Context, table string, symbols []string, days int) ([]RollingAverage, error) {
	rows, err := c.pool.Query(ctx, fmt.Sprintf(rollingAveragesSQL, table), symbols, days)
	if err != nil {
		return nil, fmt.Errorf("query rolling averages: %w", err)
	}
	defer rows.Close()

	var out []RollingAverage
	for rows.Next() {
		var (
			ts time.Time
			ra RollingAverage
		)
		if err := rows.Scan(&ts, &ra.Symbol, &ra.ClosePrice, &ra.MA5, &ra.MA10, &ra.MA20, &ra.MA50); err != nil {
			return nil, fmt.Errorf("scan rolling average: %w", err)
		}
		ra.Date = model.DateOf(ts)
		out = append(out, ra)
	}
	return out, rows.Err()
}

// QualityMetrics summarizes the health of the destination table over the
// trailing window of days.
type QualityMetrics struct {
	TotalRecords  int64
	UniqueDates   int64
	UniqueSymbols int64
	UniqueSources int64
	NullOpen      int64
	NullHigh      int64
	NullLow       int64
	NullVolume    int64
	MinClose      *float64
	MaxClose      *float64
	AvgClose      *float64
}

const qualityMetricsSQL = `
SELECT
  COUNT(*),
  COUNT(DISTINCT date),
  COUNT(DISTINCT symbol),
  COUNT(DISTINCT data_source),
  COUNT(*) FILTER (WHERE open IS NULL),
  COUNT(*) FILTER (WHERE high IS NULL),
  COUNT(*) FILTER (WHERE low IS NULL),
  COUNT(*) FILTER (WHERE volume IS NULL),
  MIN(close),
  MAX(close),
  AVG(close)
FROM %s
WHERE date >= CURRENT_DATE - $1::int`

// Quality computes data-quality metrics over the trailing window of days.
func (c *Client) Quality(ctx context.Context, table string, days int) (QualityMetrics, error) {
	var m QualityMetrics
	err := c.pool.QueryRow(ctx, fmt.Sprintf(qualityMetricsSQL, table), days).Scan(
		&m.TotalRecords,
		&m.UniqueDates,
		&m.UniqueSymbols,
		&m.UniqueSources,
		&m.NullOpen,
		&m.NullHigh,
		&m.NullLow,
		&m.NullVolume,
		&m.MinClose,
		&m.MaxClose,
		&m.AvgClose,
	)
	if err != nil {
		return QualityMetrics{}, fmt.Errorf("query quality metrics: %w", err)
	}
	return m, nil
}

// IngestionStat is one processing day's load summary.
type IngestionStat struct {
	IngestionDate    model.Date
	RecordsProcessed int64
	SymbolsProcessed int64
	SourcesProcessed int64
}

const ingestionStatsSQL = `
SELECT
  DATE(processed_at) AS ingestion_date,
  COUNT(*),
  COUNT(DISTINCT symbol),
  COUNT(DISTINCT data_source)
FROM %s
WHERE DATE(processed_at) >= CURRENT_DATE - $1::int
GROUP BY ingestion_date
ORDER BY ingestion_date DESC`

// IngestionStats summarizes loads by processing day over the trailing
// window of days.
func (c *Client) IngestionStats(ctx context.Context, table string, days int) ([]IngestionStat, error) {
	rows, err := c.pool.Query(ctx, fmt.Sprintf(ingestionStatsSQL, table), days)
	if err != nil {
		return nil, fmt.Errorf("query ingestion stats: %w", err)
	}
	defer rows.Close()

	var out []IngestionStat
	for rows.Next() {
		var (
			ts time.Time
			s  IngestionStat
		)
		if err := rows.Scan(&ts, &s.RecordsProcessed, &s.SymbolsProcessed, &s.SourcesProcessed); err != nil {
			return nil, fmt.Errorf("scan ingestion stat: %w", err)
		}
		s.IngestionDate = model.DateOf(ts)
		out = append(out, s)
	}
	return out, rows.Err()
}
