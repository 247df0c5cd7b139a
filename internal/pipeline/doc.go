// Package pipeline orchestrates one end-to-end run: extract from every
// enabled source, validate and normalize per source, reconcile across
// sources, gate the merged table, archive a snapshot, and load.
//
// A Pipeline allows one active run at a time. Run retries transient
// failures up to the configured bound with a fixed backoff; validation
// failures are deterministic and never retried.
package pipeline
