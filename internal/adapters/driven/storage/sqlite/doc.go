// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. A single database file holds:
//
//   - SalesStore: the liquorsales transactions table, serving both as the
//     AggregateSource for synchronisation and as the read-only target of
//     generated structured queries
//   - VectorIndex: an embedded SemanticIndex for single-machine deployments
//   - SchedulerStore: scheduled task state and run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.justask/justask.db. Each migration
// runs in its own transaction and is recorded in schema_migrations.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode. Structured queries run on a dedicated connection with
// query_only enabled.
package sqlite
