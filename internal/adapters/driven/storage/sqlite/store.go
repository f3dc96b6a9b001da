package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/archaeologist/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "metadata.db"

// Store is the SQLite database holding documents, metadata, embeddings,
// duplicate relations and the full-text index.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates or opens the store in dataDir and applies pending migrations.
// If dataDir is empty, defaults to ~/.archaeologist/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".archaeologist", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Pragmas in the DSN apply to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// migrate applies every embedded NNN_name.up.sql newer than the recorded
// schema version, each in its own transaction together with its version row.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `d.id, d.filename, d.filepath, d.source_extension, d.source_type,
	d.original_text, d.content_hash, d.wordcount, d.created_at, d.processed_at`

const metadataColumns = `m.language, m.topic, m.keywords, m.summary, m.content_type,
	m.is_prompt, m.is_llm_output, m.git_project, m.confidence`

// Exists reports whether a document with this filepath is stored.
func (s *documentStore) Exists(ctx context.Context, path string) (bool, error) {
	var one int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM documents WHERE filepath = ?", path).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storageError("checking document existence", err)
	}
	return true, nil
}

// FindByHash returns the lowest id with this content hash.
func (s *documentStore) FindByHash(ctx context.Context, contentHash string) (int64, error) {
	var id int64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE content_hash = ? ORDER BY id LIMIT 1", contentHash).Scan(&id)
	if err != nil {
		return 0, storageError("finding document by hash", err)
	}
	return id, nil
}

// FindByPath returns the id of the document stored at path.
func (s *documentStore) FindByPath(ctx context.Context, path string) (int64, error) {
	var id int64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE filepath = ?", path).Scan(&id)
	if err != nil {
		return 0, storageError("finding document by path", err)
	}
	return id, nil
}

// Insert writes document, metadata, embedding and duplicates in one transaction.
func (s *documentStore) Insert(ctx context.Context, record *domain.IngestRecord) (int64, error) {
	const op = "inserting document"

	if record == nil || record.Document.Filepath == "" {
		return 0, storageError(op, domain.ErrInvalidInput)
	}

	keywords := record.Metadata.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		return 0, storageError(op, fmt.Errorf("marshalling keywords: %w", err))
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageError(op, fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	doc := record.Document
	processedAt := doc.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	var id int64
	if record.Replace {
		id, err = replaceDocument(ctx, tx, &doc, processedAt)
		if err != nil {
			return 0, storageError(op, err)
		}
	}

	if id == 0 {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO documents (filename, filepath, source_extension, source_type,
				original_text, content_hash, wordcount, created_at, processed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, doc.Filename, doc.Filepath, doc.Extension, string(doc.SourceType),
			doc.Content, doc.ContentHash, doc.WordCount,
			nullTime(doc.FileCreatedAt), processedAt.UTC())
		if err != nil {
			return 0, storageError(op, fmt.Errorf("saving document: %w", err))
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, storageError(op, fmt.Errorf("reading document id: %w", err))
		}
	}

	meta := record.Metadata
	_, err = tx.ExecContext(ctx, `
		INSERT INTO metadata (document_id, language, topic, keywords, summary, content_type,
			is_prompt, is_llm_output, git_project, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, meta.Language, meta.Topic, string(keywordsJSON), meta.Summary, string(meta.ContentType),
		meta.IsPrompt, meta.IsLLMOutput, meta.Project, meta.Confidence)
	if err != nil {
		return 0, storageError(op, fmt.Errorf("saving metadata: %w", err))
	}

	if record.Embedding != nil && len(record.Embedding.Vector) > 0 {
		emb := *record.Embedding
		emb.DocumentID = id
		if err := saveEmbedding(ctx, tx, &emb); err != nil {
			return 0, storageError(op, err)
		}
	}

	for _, dup := range record.Duplicates {
		if dup.DuplicateOfID == id {
			return 0, storageError(op, fmt.Errorf("document %d cannot duplicate itself: %w", id, domain.ErrInvalidInput))
		}
		dup.DocumentID = id
		if err := insertDuplicate(ctx, tx, dup); err != nil {
			return 0, storageError(op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storageError(op, fmt.Errorf("committing transaction: %w", err))
	}
	return id, nil
}

// replaceDocument rewrites the row stored at doc.Filepath in place and
// clears its metadata, embedding and outgoing duplicate relations.
// Relations other documents hold against it are kept. It returns 0 when
// nothing is stored at the path.
func replaceDocument(ctx context.Context, tx *sql.Tx, doc *domain.Document, processedAt time.Time) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM documents WHERE filepath = ?", doc.Filepath).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("finding replaced document: %w", err)
	}

	// The update trigger reindexes the row.
	_, err = tx.ExecContext(ctx, `
		UPDATE documents SET filename = ?, source_extension = ?, source_type = ?,
			original_text = ?, content_hash = ?, wordcount = ?, created_at = ?, processed_at = ?
		WHERE id = ?
	`, doc.Filename, doc.Extension, string(doc.SourceType),
		doc.Content, doc.ContentHash, doc.WordCount,
		nullTime(doc.FileCreatedAt), processedAt.UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("updating document: %w", err)
	}

	for _, q := range []string{
		"DELETE FROM metadata WHERE document_id = ?",
		"DELETE FROM embeddings WHERE document_id = ?",
		"DELETE FROM duplicates WHERE document_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return 0, fmt.Errorf("clearing replaced document: %w", err)
		}
	}
	return id, nil
}

// Get retrieves a document joined with its metadata, embedding provenance
// and the duplicate relations it points from.
func (s *documentStore) Get(ctx context.Context, id int64) (*domain.DocumentDetails, error) {
	const op = "getting document"

	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+`, `+metadataColumns+`,
			e.model, e.dimensions
		FROM documents d
		LEFT JOIN metadata m ON m.document_id = d.id
		LEFT JOIN embeddings e ON e.document_id = d.id
		WHERE d.id = ?
	`, id)

	var details domain.DocumentDetails
	var nm nullableMetadata
	var model sql.NullString
	var dims sql.NullInt64

	dest := append(documentDest(&details.Document), nm.dest()...)
	dest = append(dest, &model, &dims)
	if err := row.Scan(dest...); err != nil {
		return nil, storageError(op, err)
	}

	meta, err := nm.metadata()
	if err != nil {
		return nil, storageError(op, err)
	}
	details.Metadata = meta
	details.EmbeddingModel = model.String
	details.EmbeddingDims = int(dims.Int64)

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, duplicate_of_id, similarity_score, detected_at
		FROM duplicates WHERE document_id = ?
		ORDER BY similarity_score DESC, id
	`, id)
	if err != nil {
		return nil, storageError(op, fmt.Errorf("querying duplicates: %w", err))
	}
	defer rows.Close()

	dups, err := scanDuplicates(rows)
	if err != nil {
		return nil, storageError(op, err)
	}
	details.DuplicateOf = dups

	return &details, nil
}

// List returns documents ordered by id.
func (s *documentStore) List(ctx context.Context, offset, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents d
		ORDER BY d.id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, storageError("listing documents", err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, storageError("listing documents", err)
	}
	return docs, nil
}

// Delete removes a document. Cascades and the delete trigger clear the rest.
func (s *documentStore) Delete(ctx context.Context, id int64) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return storageError("deleting document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageError("deleting document", err)
	}
	if n == 0 {
		return storageError("deleting document", domain.ErrNotFound)
	}
	return nil
}

// AllEmbeddings returns every stored vector in document id order.
func (s *documentStore) AllEmbeddings(ctx context.Context) ([]domain.EmbeddingRef, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT document_id, embedding FROM embeddings ORDER BY document_id")
	if err != nil {
		return nil, storageError("loading embeddings", err)
	}
	defer rows.Close()

	var refs []domain.EmbeddingRef //nolint:prealloc // size unknown from query
	for rows.Next() {
		var ref domain.EmbeddingRef
		var blob []byte
		if err := rows.Scan(&ref.DocumentID, &blob); err != nil {
			return nil, storageError("loading embeddings", fmt.Errorf("scanning embedding: %w", err))
		}
		ref.Vector = bytesToFloat32Slice(blob)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("loading embeddings", fmt.Errorf("iterating embeddings: %w", err))
	}
	return refs, nil
}

// SaveEmbedding stores or replaces the embedding of an existing document.
func (s *documentStore) SaveEmbedding(ctx context.Context, embedding *domain.Embedding) error {
	const op = "saving embedding"
	if embedding == nil || len(embedding.Vector) == 0 {
		return storageError(op, domain.ErrInvalidInput)
	}
	if err := saveEmbedding(ctx, s.store.db, embedding); err != nil {
		return storageError(op, err)
	}
	return nil
}

// DocumentsWithoutEmbedding returns documents lacking an embedding, oldest first.
func (s *documentStore) DocumentsWithoutEmbedding(ctx context.Context, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents d
		LEFT JOIN embeddings e ON e.document_id = d.id
		WHERE e.id IS NULL
		ORDER BY d.id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storageError("listing documents without embedding", err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, storageError("listing documents without embedding", err)
	}
	return docs, nil
}

// MarkDuplicate records a near-duplicate relation. Re-recording the same
// pair updates its score.
func (s *documentStore) MarkDuplicate(ctx context.Context, dup domain.Duplicate) error {
	if err := insertDuplicate(ctx, s.store.db, dup); err != nil {
		return storageError("marking duplicate", err)
	}
	return nil
}

// Duplicates returns recorded relations, newest first.
func (s *documentStore) Duplicates(ctx context.Context, limit int) ([]domain.Duplicate, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, duplicate_of_id, similarity_score, detected_at
		FROM duplicates
		ORDER BY detected_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storageError("listing duplicates", err)
	}
	defer rows.Close()

	dups, err := scanDuplicates(rows)
	if err != nil {
		return nil, storageError("listing duplicates", err)
	}
	return dups, nil
}

// Search runs an FTS5 MATCH query, best rank first.
func (s *documentStore) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	const op = "searching documents"

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`, `+metadataColumns+`,
			documents_fts.rank,
			snippet(documents_fts, 2, '[', ']', '...', 12)
		FROM documents_fts
		JOIN documents d ON d.id = documents_fts.rowid
		LEFT JOIN metadata m ON m.document_id = d.id
		WHERE documents_fts MATCH ?
		ORDER BY documents_fts.rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	var results []domain.SearchResult //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.SearchResult
		var nm nullableMetadata
		var snippet sql.NullString

		dest := append(documentDest(&r.Document), nm.dest()...)
		dest = append(dest, &r.Rank, &snippet)
		if err := rows.Scan(dest...); err != nil {
			return nil, storageError(op, fmt.Errorf("scanning result: %w", err))
		}

		meta, err := nm.metadata()
		if err != nil {
			return nil, storageError(op, err)
		}
		r.Metadata = meta
		r.Snippet = snippet.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, fmt.Errorf("iterating results: %w", err))
	}
	return results, nil
}

// Statistics aggregates counts over the store.
func (s *documentStore) Statistics(ctx context.Context) (*domain.Statistics, error) {
	const op = "computing statistics"

	stats := &domain.Statistics{}
	totals := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &stats.TotalDocuments},
		{"SELECT COUNT(*) FROM embeddings", &stats.TotalEmbeddings},
		{"SELECT COUNT(*) FROM duplicates", &stats.TotalDuplicates},
	}
	for _, t := range totals {
		if err := s.store.db.QueryRowContext(ctx, t.query).Scan(t.dest); err != nil {
			return nil, storageError(op, err)
		}
	}

	var err error
	if stats.ByLanguage, err = s.countBy(ctx,
		"SELECT language, COUNT(*) FROM metadata GROUP BY language"); err != nil {
		return nil, storageError(op, err)
	}
	if stats.BySourceType, err = s.countBy(ctx,
		"SELECT source_type, COUNT(*) FROM documents GROUP BY source_type"); err != nil {
		return nil, storageError(op, err)
	}
	if stats.ByExtension, err = s.countBy(ctx,
		"SELECT source_extension, COUNT(*) FROM documents GROUP BY source_extension"); err != nil {
		return nil, storageError(op, err)
	}

	return stats, nil
}

func (s *documentStore) countBy(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key sql.NullString
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[key.String] += n
	}
	return counts, rows.Err()
}

// ==================== Helpers ====================

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveEmbedding(ctx context.Context, db execer, emb *domain.Embedding) error {
	dims := emb.Dimensions
	if dims == 0 {
		dims = len(emb.Vector)
	}
	if dims != len(emb.Vector) {
		return fmt.Errorf("embedding has %d values but %d dimensions: %w",
			len(emb.Vector), dims, domain.ErrInvalidInput)
	}

	createdAt := emb.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO embeddings (document_id, embedding, dimensions, model, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			model = excluded.model,
			created_at = excluded.created_at
	`, emb.DocumentID, float32SliceToBytes(emb.Vector), dims, emb.Model, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("saving embedding: %w", err)
	}
	return nil
}

func insertDuplicate(ctx context.Context, db execer, dup domain.Duplicate) error {
	if dup.DocumentID == dup.DuplicateOfID || dup.Similarity <= 0 {
		return fmt.Errorf("duplicate %d of %d with score %f: %w",
			dup.DocumentID, dup.DuplicateOfID, dup.Similarity, domain.ErrInvalidInput)
	}
	// Float rounding can put identical vectors just above one.
	score := math.Min(dup.Similarity, 1)

	detectedAt := dup.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO duplicates (document_id, duplicate_of_id, similarity_score, detected_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(document_id, duplicate_of_id) DO UPDATE SET
			similarity_score = excluded.similarity_score,
			detected_at = excluded.detected_at
	`, dup.DocumentID, dup.DuplicateOfID, score, detectedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving duplicate: %w", err)
	}
	return nil
}

// storageError wraps err so callers never see a raw driver error.
// sql.ErrNoRows becomes domain.ErrNotFound.
func storageError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		err = domain.ErrNotFound
	}
	var se *domain.StorageError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// float32SliceToBytes encodes a vector as little-endian float32 bytes.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice decodes a vector written by float32SliceToBytes.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// documentDest returns scan targets matching documentColumns.
// FileCreatedAt is nullable and is filled through a wrapper.
func documentDest(doc *domain.Document) []any {
	return []any{
		&doc.ID, &doc.Filename, &doc.Filepath, &doc.Extension,
		(*sourceTypeScanner)(&doc.SourceType),
		&doc.Content, &doc.ContentHash, &doc.WordCount,
		(*nullTimeScanner)(&doc.FileCreatedAt), &doc.ProcessedAt,
	}
}

func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(documentDest(&doc)...); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

func scanDuplicates(rows *sql.Rows) ([]domain.Duplicate, error) {
	var dups []domain.Duplicate //nolint:prealloc // size unknown from query
	for rows.Next() {
		var d domain.Duplicate
		if err := rows.Scan(&d.DocumentID, &d.DuplicateOfID, &d.Similarity, &d.DetectedAt); err != nil {
			return nil, fmt.Errorf("scanning duplicate: %w", err)
		}
		dups = append(dups, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicates: %w", err)
	}
	return dups, nil
}

// sourceTypeScanner scans a TEXT column into a domain.SourceType.
type sourceTypeScanner domain.SourceType

func (s *sourceTypeScanner) Scan(src any) error {
	var v sql.NullString
	if err := v.Scan(src); err != nil {
		return err
	}
	*s = sourceTypeScanner(v.String)
	return nil
}

// nullTimeScanner scans a nullable DATETIME column, NULL as the zero time.
type nullTimeScanner time.Time

func (t *nullTimeScanner) Scan(src any) error {
	var v sql.NullTime
	if err := v.Scan(src); err != nil {
		return err
	}
	if v.Valid {
		*t = nullTimeScanner(v.Time)
	} else {
		*t = nullTimeScanner(time.Time{})
	}
	return nil
}

// nullableMetadata holds metadataColumns from a LEFT JOIN.
type nullableMetadata struct {
	language, topic, keywords, summary, contentType, project sql.NullString
	isPrompt, isLLMOutput                                    sql.NullBool
	confidence                                               sql.NullFloat64
}

func (n *nullableMetadata) dest() []any {
	return []any{
		&n.language, &n.topic, &n.keywords, &n.summary, &n.contentType,
		&n.isPrompt, &n.isLLMOutput, &n.project, &n.confidence,
	}
}

// metadata returns nil when the join found no metadata row.
func (n *nullableMetadata) metadata() (*domain.Metadata, error) {
	if !n.keywords.Valid {
		return nil, nil
	}

	m := &domain.Metadata{
		Language:    n.language.String,
		Topic:       n.topic.String,
		Summary:     n.summary.String,
		ContentType: domain.ContentType(n.contentType.String),
		IsPrompt:    n.isPrompt.Bool,
		IsLLMOutput: n.isLLMOutput.Bool,
		Project:     n.project.String,
		Confidence:  n.confidence.Float64,
		Keywords:    []string{},
	}
	if n.keywords.String != "" {
		if err := json.Unmarshal([]byte(n.keywords.String), &m.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshalling keywords: %w", err)
		}
	}
	return m, nil
}
