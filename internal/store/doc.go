// Package store executes compiled catalog queries against a SQL database.
//
// A Store is a querysql.Backend: Open hands the engine a SelectQuery in the
// store's dialect, and Fetch/Count render it with squirrel and run it through
// database/sql. Fetched values are normalized per field type so rows look
// the same whichever driver produced them.
//
// # Drivers
//
//   - sqlite3: github.com/mattn/go-sqlite3, file path or :memory: DSN
//   - pgx: github.com/jackc/pgx/v5/stdlib
//   - postgres: github.com/lib/pq
//
// # SQLite Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - case_sensitive_like=ON: LIKE matches case the way Postgres does
//
// # Fixtures
//
// Seed loads a YAML document whose top-level keys are entity names (rows
// keyed by field name) or raw table names (rows keyed by column name).
// Rows are inserted in document order inside one transaction.
package store
