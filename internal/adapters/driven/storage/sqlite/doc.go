// Package sqlite provides a SQLite-based implementation of the metadata ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements two store interfaces
// through a single database connection:
//
//   - DocumentStore: Document metadata and lifecycle status
//   - ChunkRegistry: Chunk text, owning document and character offsets
//
// Vectors are not stored here; they live in the vector index snapshot.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each applied version is recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.docuquery/data/metadata.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
