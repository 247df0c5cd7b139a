package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/stocketl/internal/archive"
	"github.com/quantfold/stocketl/internal/config"
	"github.com/quantfold/stocketl/internal/extract"
	"github.com/quantfold/stocketl/internal/load"
	"github.com/quantfold/stocketl/internal/model"
	"github.com/quantfold/stocketl/internal/normalize"
	"github.com/quantfold/stocketl/internal/reconcile"
	"github.com/quantfold/stocketl/internal/schema"
	"github.com/quantfold/stocketl/internal/tabular"
)

// ErrRunInProgress is returned by Run when a run is already active.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// RunSummary reports one completed run.
type RunSummary struct {
	RunDate     model.Date
	SourceRows  map[string]int // normalized records per source
	MergedRows  int
	DedupedRows int
	Warnings    []string
	Load        load.LoadResult
	Duration    time.Duration
}

// Pipeline wires the run stages together.
type Pipeline struct {
	cfg         *config.Config
	clients     []extract.Client
	validator   *schema.SchemaValidator
	normalizer  *normalize.Normalizer
	reconciler  *reconcile.Reconciler
	coordinator *load.Coordinator
	archive     archive.Store
	gates       []schema.Validator
	logger      *slog.Logger
	now         func() time.Time
	sleep       func(context.Context, time.Duration) error

	running atomic.Bool
}

// New creates a pipeline over the given extraction clients and load
// store. archiveStore may be nil when archiving is disabled.
func New(cfg *config.Config, clients []extract.Client, store load.Store, archiveStore archive.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	sources := make([]string, len(clients))
	for i, c := range clients {
		sources[i] = c.Source()
	}

	var gates []schema.Validator
	if cfg.Validation.Freshness.Enabled {
		gates = append(gates, schema.Freshness(cfg.Validation.Freshness.MaxAgeDays))
	}
	if len(cfg.Validation.SymbolCoverage) > 0 {
		gates = append(gates, schema.SymbolCoverage(cfg.Validation.SymbolCoverage))
	}

	return &Pipeline{
		cfg:         cfg,
		clients:     clients,
		validator:   schema.NewValidator(sources, logger),
		normalizer:  normalize.New(logger),
		reconciler:  reconcile.New(cfg.Validation.SpreadThresholdPct, logger),
		coordinator: load.NewCoordinator(store, cfg.Load.StagingTable, logger),
		archive:     archiveStore,
		gates:       gates,
		logger:      logger,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Run executes one pipeline run, retrying transient failures up to the
// configured bound. Only one run may be active at a time.
func (p *Pipeline) Run(ctx context.Context) (RunSummary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return RunSummary{}, ErrRunInProgress
	}
	defer p.running.Store(false)

	var lastErr error
	for attempt := 0; attempt <= p.cfg.Pipeline.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Warn("retrying pipeline run",
				"attempt", attempt,
				"backoff", p.cfg.Pipeline.RetryBackoff,
				"error", lastErr)
			if err := p.sleep(ctx, p.cfg.Pipeline.RetryBackoff); err != nil {
				return RunSummary{}, err
			}
		}

		summary, err := p.runOnce(ctx)
		if err == nil {
			return summary, nil
		}
		if permanent(err) {
			return RunSummary{}, err
		}
		lastErr = err
	}
	return RunSummary{}, fmt.Errorf("pipeline run failed after %d attempts: %w", p.cfg.Pipeline.MaxRetries+1, lastErr)
}

func (p *Pipeline) runOnce(ctx context.Context) (RunSummary, error) {
	start := p.now()
	runDate := model.DateOf(start.UTC())

	p.logger.Info("pipeline run starting",
		"pipeline", p.cfg.Pipeline.Name,
		"run_date", runDate,
		"sources", len(p.clients),
		"symbols", len(p.cfg.Pipeline.Symbols))

	summary := RunSummary{
		RunDate:    runDate,
		SourceRows: make(map[string]int),
	}

	// Extract, validate and normalize each source concurrently. One
	// source failing fails the run.
	tables := make([][]model.Record, len(p.clients))
	g, gctx := errgroup.WithContext(ctx)
	for i, client := range p.clients {
		g.Go(func() error {
			records, err := p.extractSource(gctx, client)
			if err != nil {
				return err
			}
			tables[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RunSummary{}, err
	}
	for i, client := range p.clients {
		summary.SourceRows[client.Source()] = len(tables[i])
	}

	merged, recReport, err := p.reconciler.Merge(tables...)
	if err != nil {
		return RunSummary{}, fmt.Errorf("reconcile: %w", err)
	}
	summary.MergedRows = recReport.MergedRowCount
	summary.DedupedRows = recReport.DedupedRowCount
	summary.Warnings = append(summary.Warnings, recReport.Warnings...)

	transformed := tabular.FromRecords(merged)
	rep, err := p.validator.Validate(transformed, schema.ContractTransformed)
	if err != nil {
		return RunSummary{}, fmt.Errorf("validate transformed table: %w", err)
	}
	summary.Warnings = append(summary.Warnings, rep.Warnings...)

	for _, gate := range p.gates {
		gateRep := gate.Validate(transformed)
		summary.Warnings = append(summary.Warnings, gateRep.Warnings...)
		if err := schema.AsError(gateRep, schema.KindBusinessRule); err != nil {
			return RunSummary{}, fmt.Errorf("quality gate: %w", err)
		}
	}

	if p.archive != nil {
		data, err := transformed.Encode()
		if err != nil {
			return RunSummary{}, fmt.Errorf("encode snapshot: %w", err)
		}
		if err := p.archive.Put(ctx, archive.ObjectKey(runDate), data); err != nil {
			return RunSummary{}, fmt.Errorf("archive snapshot: %w", err)
		}
	}

	var result load.LoadResult
	switch p.cfg.Load.Mode {
	case "append":
		result = p.coordinator.Append(ctx, merged, p.cfg.Load.Table)
	default:
		result = p.coordinator.Upsert(ctx, merged, p.cfg.Load.Table, p.cfg.Load.KeyColumns)
	}
	summary.Load = result
	if result.Failed() {
		return RunSummary{}, fmt.Errorf("load %s: %s", p.cfg.Load.Mode, result.Detail)
	}

	summary.Duration = p.now().Sub(start)
	p.logger.Info("pipeline run complete",
		"run_date", runDate,
		"merged_rows", summary.MergedRows,
		"deduped_rows", summary.DedupedRows,
		"rows_written", result.RowsWritten,
		"warnings", len(summary.Warnings),
		"duration", summary.Duration)
	return summary, nil
}

// extractSource runs the per-source stages: fetch, raw validation,
// normalization.
func (p *Pipeline) extractSource(ctx context.Context, client extract.Client) ([]model.Record, error) {
	source := client.Source()

	raw, err := client.FetchDaily(ctx, p.cfg.Pipeline.Symbols)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", source, err)
	}

	rep, err := p.validator.Validate(raw, "raw:"+source)
	if err != nil {
		return nil, fmt.Errorf("validate raw %s table: %w", source, err)
	}
	for _, w := range rep.Warnings {
		p.logger.Warn("raw validation warning", "source", source, "warning", w)
	}

	records, err := p.normalizer.Normalize(raw, source)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", source, err)
	}
	return records, nil
}

// permanent reports whether a run error is deterministic and must not
// be retried.
func permanent(err error) bool {
	var violation *schema.ViolationError
	if errors.As(err, &violation) {
		return true
	}
	var unknown *normalize.UnknownSourceError
	if errors.As(err, &unknown) {
		return true
	}
	if errors.Is(err, reconcile.ErrNoData) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
