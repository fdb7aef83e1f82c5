// Package store provides SQLite-backed durable storage for schema
// snapshots.
//
// Every discovered schema is kept as a row in an append-only history, so
// a service can start from the last known schema without reaching the
// database it describes, and operators can see when the schema changed.
//
// # Critical Patterns
//
// Logical ordering:
//   - History is ordered by seq INTEGER, never by created_at
//   - Ties cannot occur; seq is the rowid
//
// Deduplication:
//   - Saving a snapshot whose fingerprint equals the latest one for the
//     same main table is a no-op that returns the existing row
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
