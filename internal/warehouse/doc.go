// Package warehouse provides the PostgreSQL/TimescaleDB destination store
// for reconciled stock data.
//
// It implements the load.Store sink contract (append, staged replace,
// conditional merge) plus destination DDL and the analytical queries
// consumed by reporting jobs. The destination table is day-chunked
// (hypertable when TimescaleDB is available) and indexed by symbol.
package warehouse
