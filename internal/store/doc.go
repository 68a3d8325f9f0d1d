// Package store provides SQLite-backed storage for simulation runs and
// their snapshot records.
//
// Tables:
//   - runs: one row per run with its configuration and final summary
//   - snapshots: one row per (run, stream, seq) snapshot record
//
// Reads are deterministic: snapshot queries order by seq, then stream name
// (binary collation), so a stored run reads back identically every time.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads (e.g. the trace command) during a run
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait on lock contention
//   - foreign_keys=ON: snapshots must reference a run
//
// Schema changes are applied as numbered migrations tracked in
// PRAGMA user_version.
package store
