// Package archive persists the merged daily snapshot before loading.
//
// Each run writes one CSV snapshot under a date-partitioned key so a
// failed load can be replayed from the archived table instead of
// re-fetching the providers.
package archive
