// Package schema implements data-quality validation of tabular stage output.
//
// A SchemaValidator checks a table against a named contract:
//   - "raw:alpha_vantage", "raw:yahoo_finance" — structural checks on raw feed tables
//   - "transformed" — structural checks on the merged canonical table
//
// plus business rules that run regardless of contract (no negative close,
// no future dates). Hard failures are returned as *ViolationError carrying
// the full report; soft issues accumulate into the report's warnings.
//
// Freshness and symbol-coverage checks are standalone Validator values
// selected by configuration.
package schema
