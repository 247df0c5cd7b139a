package warehouse

import "fmt"

// createTableSQL is the destination table definition. Nullability mirrors
// the canonical record shape; the business key is the unique constraint
// the conditional merge relies on.
const createTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
  date             DATE             NOT NULL,
  symbol           TEXT             NOT NULL,
  open             DOUBLE PRECISION,
  high             DOUBLE PRECISION,
  low              DOUBLE PRECISION,
  close            DOUBLE PRECISION NOT NULL,
  volume           BIGINT,
  data_source      TEXT             NOT NULL,
  processed_at     TIMESTAMPTZ      NOT NULL,
  daily_change_pct DOUBLE PRECISION,
  daily_volatility DOUBLE PRECISION,
  UNIQUE (date, symbol, data_source)
)`

// createStagingSQL mirrors the destination without the unique constraint;
// the staging table is fully replaced every attempt.
const createStagingSQL = `
CREATE TABLE IF NOT EXISTS %s (
  date             DATE             NOT NULL,
  symbol           TEXT             NOT NULL,
  open             DOUBLE PRECISION,
  high             DOUBLE PRECISION,
  low              DOUBLE PRECISION,
  close            DOUBLE PRECISION NOT NULL,
  volume           BIGINT,
  data_source      TEXT             NOT NULL,
  processed_at     TIMESTAMPTZ      NOT NULL,
  daily_change_pct DOUBLE PRECISION,
  daily_volatility DOUBLE PRECISION
)`

// createHypertableSQL converts the destination into a day-chunked
// hypertable; the date partitioning analog of the original warehouse.
const createHypertableSQL = `SELECT create_hypertable('%s', 'date', chunk_time_interval => INTERVAL '1 day', if_not_exists => TRUE)`

const createSymbolIndexSQL = `CREATE INDEX IF NOT EXISTS %s_symbol_idx ON %s (symbol, date)`

// createDailyMetricsViewSQL is the aggregated per-day view consumed by
// analytics dashboards.
const createDailyMetricsViewSQL = `
CREATE OR REPLACE VIEW stock_daily_metrics AS
SELECT
  date,
  symbol,
  MAX(close)                    AS close_price,
  AVG(daily_volatility)         AS avg_volatility,
  COUNT(DISTINCT data_source)   AS source_count
FROM %s
GROUP BY date, symbol`

func ddlStatements(table, staging string) []string {
	return []string{
		fmt.Sprintf(createTableSQL, table),
		fmt.Sprintf(createStagingSQL, staging),
		fmt.Sprintf(createSymbolIndexSQL, table, table),
		fmt.Sprintf(createDailyMetricsViewSQL, table),
	}
}
