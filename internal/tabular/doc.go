// Package tabular implements the delimited intermediate record format
// exchanged between pipeline stages: CSV with a header row.
//
// Raw feed tables carry each source's native column names; canonical
// tables use the column order in CanonicalColumns. Empty cells encode
// NULL values.
package tabular
