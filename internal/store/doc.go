// Package store provides SQLite-backed storage for minirel tables.
//
// User tables are ordinary SQLite tables created by create table
// statements. Alongside them the store keeps:
//   - minirel_views: view name → defining select statement
//   - minirel_indexes: index name → table, field and requested index type
//   - minirel_statements: an append-only log of executed statements
//
// # Deterministic Reads
//
// Every table read ends its ORDER BY with rowid ASC, so rows that tie on
// the requested sort keys come back in insertion order. The statement log
// is ordered by seq, a logical clock, never by wall time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Reads are materialized in memory; a returned cursor holds no database
// resources.
package store
