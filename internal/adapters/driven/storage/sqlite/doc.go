// Package sqlite implements the document store on SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. One database holds four tables and
// a full-text index:
//
//   - documents: one row per ingested file, unique by filepath
//   - metadata: the analysis of each document, written with it
//   - embeddings: at most one vector per document, as a float32 blob
//   - duplicates: near-duplicate relations from newer to older documents
//   - documents_fts: FTS5 external-content index over filename, filepath
//     and text, kept in sync by insert, update and delete triggers
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.archaeologist/data/metadata.db
//
// # Errors
//
// Every error returned by the document store is a *domain.StorageError.
// Missing rows wrap domain.ErrNotFound.
package sqlite
