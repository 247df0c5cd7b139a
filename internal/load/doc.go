// Package load commits reconciled tables into the destination table.
//
// Two modes:
//   - Append: unconditional insert, safe when the caller guarantees no
//     prior write overlaps this run's key space (day-partitioned runs).
//   - Upsert: truncate-and-fill a staging table scoped to the attempt,
//     then one conditional merge on the business key. Replaying the same
//     input converges to the same destination state.
//
// Each attempt walks PENDING -> STAGED -> MERGED -> COMMITTED, with
// FAILED terminal from any non-terminal state. External-system errors are
// reported through LoadResult, never returned as errors; the orchestrator
// owns retry policy.
package load
