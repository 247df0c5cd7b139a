// Package reconcile merges per-source canonical tables into one logical
// dataset.
//
// The merge deduplicates on the full business key (date, symbol,
// data_source) keeping the first-seen row, then cross-checks close prices
// between sources for the same (date, symbol). Disagreement above the
// spread threshold is surfaced as a warning; rows are never dropped or
// averaged, because choosing a source of truth is a business decision
// outside this package.
package reconcile
