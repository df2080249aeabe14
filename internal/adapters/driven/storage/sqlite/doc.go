// Package sqlite provides the SQLite-backed implementation of the
// metadata store port.
//
// The adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. One database
// holds two tables: pages, keyed by page ID with the last indexed
// version and content hash, and sync_state, a singleton row carrying
// the watermark of the last completed sync.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory and applied on open.
//
// # Data Location
//
// By default, the database is stored at ~/.confsync/data/metadata.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
