package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quantfold/stocketl/internal/model"
)

// ErrNoData is returned when there are no input tables or all inputs are
// empty. It is the only way Merge fails.
var ErrNoData = errors.New("no data to merge")

// DefaultSpreadThresholdPct is the cross-source close-price spread above
// which a consistency warning is emitted.
const DefaultSpreadThresholdPct = 5.0

// Report summarizes one merge: counts plus the ordered consistency
// warnings. Warnings never abort the pipeline.
type Report struct {
	MergedRowCount  int
	DedupedRowCount int
	SourceCounts    map[string]int
	Warnings        []string
}

// Reconciler merges per-source record tables.
type Reconciler struct {
	spreadThresholdPct float64
	logger             *slog.Logger
}

// New creates a Reconciler. A zero or negative threshold falls back to
// DefaultSpreadThresholdPct.
func New(spreadThresholdPct float64, logger *slog.Logger) *Reconciler {
	if spreadThresholdPct <= 0 {
		spreadThresholdPct = DefaultSpreadThresholdPct
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{spreadThresholdPct: spreadThresholdPct, logger: logger}
}

// Merge concatenates the input tables, drops business-key duplicates
// (keeping first-seen in a stable (date, symbol, data_source) sort),
// cross-checks close prices between sources, and returns the merged
// table sorted by (date, symbol, data_source).
//
// Duplicate removal and price disagreement are warnings in the report;
// rows with the same (date, symbol) from different sources are all
// retained. Merge never mutates record values.
func (r *Reconciler) Merge(tables ...[]model.Record) ([]model.Record, Report, error) {
	rep := Report{SourceCounts: map[string]int{}}

	var all []model.Record
	for _, t := range tables {
		all = append(all, t...)
	}
	if len(all) == 0 {
		return nil, rep, ErrNoData
	}

	// Stable sort so "first seen" is deterministic across runs.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].BusinessKey().Less(all[j].BusinessKey())
	})

	seen := make(map[model.BusinessKey]bool, len(all))
	merged := all[:0:0]
	for _, rec := range all {
		key := rec.BusinessKey()
		if seen[key] {
			rep.DedupedRowCount++
			continue
		}
		seen[key] = true
		merged = append(merged, rec)
		rep.SourceCounts[rec.DataSource]++
	}
	if rep.DedupedRowCount > 0 {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("removed %d duplicate records", rep.DedupedRowCount))
	}

	r.checkSpread(merged, &rep)

	rep.MergedRowCount = len(merged)
	r.logger.Info("merged source tables",
		"tables", len(tables),
		"rows", rep.MergedRowCount,
		"duplicates_removed", rep.DedupedRowCount,
		"warnings", len(rep.Warnings),
	)
	return merged, rep, nil
}

// checkSpread emits a warning for every (date, symbol) group where
// distinct sources disagree on close by more than the threshold.
// The input is already sorted by (date, symbol, data_source), so groups
// are contiguous and warnings come out in deterministic order.
func (r *Reconciler) checkSpread(merged []model.Record, rep *Report) {
	for start := 0; start < len(merged); {
		end := start + 1
		key := merged[start].ReconciliationKey()
		for end < len(merged) && merged[end].ReconciliationKey() == key {
			end++
		}
		group := merged[start:end]
		start = end

		if len(group) < 2 {
			continue
		}
		sources := map[string]bool{}
		minClose, maxClose := group[0].Close, group[0].Close
		for _, rec := range group {
			sources[rec.DataSource] = true
			if rec.Close < minClose {
				minClose = rec.Close
			}
			if rec.Close > maxClose {
				maxClose = rec.Close
			}
		}
		if len(sources) < 2 || minClose <= 0 {
			continue
		}

		spread := (maxClose - minClose) / minClose * 100
		if spread > r.spreadThresholdPct {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf(
				"price inconsistency for %s on %s: %s%% spread between sources",
				key.Symbol, key.Date, decimal.NewFromFloat(spread).Round(2),
			))
		}
	}
}
