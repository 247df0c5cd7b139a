// Package normalize converts raw per-source tables into the canonical
// record shape.
//
// Per source it maps column names (native or already-canonical headers),
// parses the source's date formats, coerces prices to float64 and volume
// to a non-negative integer (null becomes 0), and computes the derived
// daily_change_pct and daily_volatility fields. Output is sorted by
// (symbol, date) so downstream diffs are deterministic.
package normalize
