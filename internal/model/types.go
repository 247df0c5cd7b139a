package model

import "time"

// Record is one daily price observation for a symbol from a single feed.
type Record struct {
	Date       Date     // Trading day
	Symbol     string   // Uppercase ticker (e.g., "AAPL")
	Open       *float64 // Opening price, nil = not reported
	High       *float64 // Intraday high, nil = not reported
	Low        *float64 // Intraday low, nil = not reported
	Close      float64  // Closing price (mandatory)
	Volume     *int64   // Shares traded, nil = not reported
	DataSource string   // Feed identifier (e.g., "alpha_vantage")

	IngestedAt  time.Time // When the feed client captured the row
	ProcessedAt time.Time // When the normalizer produced the canonical row

	// Derived fields, computed by the normalizer. Nil when the
	// inputs needed for the formula are missing.
	DailyChangePct  *float64 // (close-open)/open*100, 2 decimals
	DailyVolatility *float64 // (high-low)/open*100, 2 decimals
}

// BusinessKey is the tuple that must be unique within one feed's output.
type BusinessKey struct {
	Date   Date
	Symbol string
	Source string
}

// ReconciliationKey is the tuple across which feeds are compared for agreement.
type ReconciliationKey struct {
	Date   Date
	Symbol string
}

// BusinessKey returns the record's (date, symbol, data_source) key.
func (r Record) BusinessKey() BusinessKey {
	return BusinessKey{Date: r.Date, Symbol: r.Symbol, Source: r.DataSource}
}

// ReconciliationKey returns the record's (date, symbol) key.
func (r Record) ReconciliationKey() ReconciliationKey {
	return ReconciliationKey{Date: r.Date, Symbol: r.Symbol}
}

// Less orders keys by (date, symbol, source), the canonical output order
// of the reconciler.
func (k BusinessKey) Less(x BusinessKey) bool {
	if c := k.Date.Compare(x.Date); c != 0 {
		return c < 0
	}
	if k.Symbol != x.Symbol {
		return k.Symbol < x.Symbol
	}
	return k.Source < x.Source
}

// Float64 returns a pointer to v. Helper for building nullable fields.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v. Helper for building nullable fields.
func Int64(v int64) *int64 { return &v }
