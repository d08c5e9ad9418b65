// Package sqlite provides SQLite-backed implementations of the metadata
// storage ports: sources, sync state, documents and chunks.
//
// A single Store owns the database connection; the individual port
// implementations are lightweight wrappers around it. The database runs in
// WAL mode so ingestion writes don't block query reads.
package sqlite
