package load

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quantfold/stocketl/internal/model"
)

// Store is the narrow destination-sink contract the coordinator writes
// through. internal/warehouse provides the PostgreSQL implementation.
type Store interface {
	// Append inserts rows into the named table unconditionally and
	// returns the number written.
	Append(ctx context.Context, table string, rows []model.Record) (int64, error)

	// ReplaceStaging truncates the staging table and fills it with rows.
	// The staging table is scoped to a single load attempt; an aborted
	// previous attempt must not leak rows into the next merge.
	ReplaceStaging(ctx context.Context, staging string, rows []model.Record) (int64, error)

	// MergeStaging merges staging into dest: rows matching on all
	// keyColumns overwrite non-key columns, the rest insert. Returns the
	// number of rows affected.
	MergeStaging(ctx context.Context, staging, dest string, keyColumns []string) (int64, error)
}

// Coordinator performs idempotent loads into the destination table.
type Coordinator struct {
	store   Store
	staging string
	logger  *slog.Logger
}

// NewCoordinator creates a Coordinator writing through store, using the
// named staging table for upserts.
func NewCoordinator(store Store, staging string, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, staging: staging, logger: logger}
}

// Append writes all rows into dest unconditionally. Idempotence is
// partition-scoped: the caller must guarantee the destination holds no
// prior rows for this run's key space.
func (c *Coordinator) Append(ctx context.Context, rows []model.Record, dest string) LoadResult {
	a := c.newAttempt("append", dest)

	written, err := c.store.Append(ctx, dest, rows)
	if err != nil {
		return a.fail(fmt.Errorf("append to %s: %w", dest, err))
	}

	return a.commit(written)
}

// Upsert stages rows and performs a single conditional merge keyed on
// keyColumns. Replaying the same table with the same key set converges to
// the same destination state.
func (c *Coordinator) Upsert(ctx context.Context, rows []model.Record, dest string, keyColumns []string) LoadResult {
	a := c.newAttempt("upsert", dest)

	if len(keyColumns) == 0 {
		return a.fail(fmt.Errorf("upsert to %s: no key columns", dest))
	}

	staged, err := c.store.ReplaceStaging(ctx, c.staging, rows)
	if err != nil {
		return a.fail(fmt.Errorf("stage into %s: %w", c.staging, err))
	}
	a.advance(StateStaged, "rows", staged)

	affected, err := c.store.MergeStaging(ctx, c.staging, dest, keyColumns)
	if err != nil {
		return a.fail(fmt.Errorf("merge %s into %s: %w", c.staging, dest, err))
	}
	a.advance(StateMerged, "rows_affected", affected)

	return a.commit(affected)
}

// attempt tracks the state machine of one load.
type attempt struct {
	jobID  uuid.UUID
	mode   string
	dest   string
	state  State
	logger *slog.Logger
}

func (c *Coordinator) newAttempt(mode, dest string) *attempt {
	a := &attempt{
		jobID:  uuid.New(),
		mode:   mode,
		dest:   dest,
		state:  StatePending,
		logger: c.logger,
	}
	a.logger.Info("load attempt started",
		"job_id", a.jobID,
		"mode", mode,
		"destination", dest,
	)
	return a
}

func (a *attempt) advance(s State, extra ...any) {
	a.state = s
	args := append([]any{"job_id", a.jobID, "state", s}, extra...)
	a.logger.Debug("load attempt advanced", args...)
}

func (a *attempt) commit(rows int64) LoadResult {
	a.state = StateCommitted
	a.logger.Info("load attempt committed",
		"job_id", a.jobID,
		"mode", a.mode,
		"destination", a.dest,
		"rows", rows,
	)
	return LoadResult{
		JobID:       a.jobID,
		Status:      StatusSuccess,
		State:       StateCommitted,
		RowsWritten: rows,
	}
}

func (a *attempt) fail(err error) LoadResult {
	a.state = StateFailed
	a.logger.Error("load attempt failed",
		"job_id", a.jobID,
		"mode", a.mode,
		"destination", a.dest,
		"error", err,
	)
	return LoadResult{
		JobID:  a.jobID,
		Status: StatusError,
		State:  StateFailed,
		Detail: err.Error(),
	}
}
