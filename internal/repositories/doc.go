// Package repositories implements SQLite persistence for the local job history.
//
// The history records every generation job this client creates so that jobs can be listed and
// resumed without asking the backend. Rows are soft deleted via deleted_at and excluded from queries by default.
//
//   - [JobRepository] : job history with remote-ID lookups and status tracking
//
// Sequence numbers give a stable, human-readable ordering (job #7) independent of UUIDs and timestamps.
// [NextSequence] atomically increments per-table counters kept in dedicated sequence tables.
package repositories
