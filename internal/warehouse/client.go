package warehouse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/stocketl/internal/model"
)

// Client is the pgx-backed destination store. It satisfies load.Store.
type Client struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewClient creates a Client over an existing pool.
func NewClient(pool *pgxpool.Pool, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{pool: pool, logger: logger}
}

// EnsureSchema creates the destination and staging tables, the symbol
// index, and the daily metrics view. The hypertable conversion is best
// effort: on plain PostgreSQL the destination stays a regular table.
func (c *Client) EnsureSchema(ctx context.Context, table, staging string) error {
	for _, stmt := range ddlStatements(table, staging) {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	if _, err := c.pool.Exec(ctx, fmt.Sprintf(createHypertableSQL, table)); err != nil {
		c.logger.Warn("hypertable conversion skipped", "table", table, "error", err)
	}
	return nil
}

// Append inserts rows unconditionally using a single batch.
func (c *Client) Append(ctx context.Context, table string, rows []model.Record) (int64, error) {
	return c.batchInsert(ctx, table, rows)
}

// ReplaceStaging truncates the staging table and fills it with rows, so
// an aborted previous attempt cannot leak stale rows into a merge.
func (c *Client) ReplaceStaging(ctx context.Context, staging string, rows []model.Record) (int64, error) {
	if _, err := c.pool.Exec(ctx, "TRUNCATE TABLE "+staging); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", staging, err)
	}
	return c.batchInsert(ctx, staging, rows)
}

// MergeStaging runs the conditional merge from staging into dest keyed on
// keyColumns and returns the number of rows affected.
func (c *Client) MergeStaging(ctx context.Context, staging, dest string, keyColumns []string) (int64, error) {
	query := BuildMergeQuery(dest, staging, append([]string(nil), mergeColumns...), keyColumns)

	tag, err := c.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("merge: %w", err)
	}
	return tag.RowsAffected(), nil
}

// mergeColumns is the full destination column set used by the merge.
var mergeColumns = []string{
	"date", "symbol", "open", "high", "low", "close", "volume",
	"data_source", "processed_at", "daily_change_pct", "daily_volatility",
}

func (c *Client) batchInsert(ctx context.Context, table string, rows []model.Record) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := buildInsertQuery(table)
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(query,
			r.Date.Time(),
			r.Symbol,
			r.Open,
			r.High,
			r.Low,
			r.Close,
			r.Volume,
			r.DataSource,
			r.ProcessedAt,
			r.DailyChangePct,
			r.DailyVolatility,
		)
	}

	results := c.pool.SendBatch(ctx, batch)
	defer results.Close()

	var written int64
	for range rows {
		tag, err := results.Exec()
		if err != nil {
			return written, fmt.Errorf("batch insert into %s: %w", table, err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}
