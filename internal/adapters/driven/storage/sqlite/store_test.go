package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, driven.DocumentStore) {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store, store.DocumentStore()
}

// newRecord builds an ingest record for a file with the given text.
func newRecord(path, text string) *domain.IngestRecord {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.IngestRecord{
		Document: domain.Document{
			Filename:      filepath.Base(path),
			Filepath:      path,
			Extension:     domain.ExtensionOf(path),
			SourceType:    domain.SourceTypeForExtension(domain.ExtensionOf(path)),
			Content:       text,
			ContentHash:   "hash-" + text,
			WordCount:     len(text),
			FileCreatedAt: created,
			ProcessedAt:   created.Add(time.Hour),
		},
		Metadata: domain.Metadata{
			Language:    "en",
			Topic:       "testing",
			Keywords:    []string{"alpha", "beta"},
			ContentType: domain.ContentTypeNotes,
			Summary:     "a summary",
			IsPrompt:    true,
			Project:     "archaeologist",
			Confidence:  0.8,
		},
	}
}

func insert(t *testing.T, docs driven.DocumentStore, rec *domain.IngestRecord) int64 {
	t.Helper()
	id, err := docs.Insert(context.Background(), rec)
	require.NoError(t, err)
	require.Positive(t, id)
	return id
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, DatabaseFile)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	nestedDir := filepath.Join(t.TempDir(), "nested", "path", "to", "db")

	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store, _ := setupTestStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	for _, table := range []string{"documents", "metadata", "embeddings", "duplicates", "documents_fts"} {
		var name string
		err := store.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type IN ('table') AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}

	for _, trigger := range []string{"documents_ai", "documents_ad", "documents_au"} {
		var name string
		err := store.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'trigger' AND name = ?", trigger).Scan(&name)
		require.NoError(t, err, "trigger %s should exist", trigger)
	}
}

func TestNewStore_ReopenIsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store1, err := NewStore(dir)
	require.NoError(t, err)
	insert(t, store1.DocumentStore(), newRecord("/docs/a.txt", "persisted text"))
	require.NoError(t, store1.Close())

	store2, err := NewStore(dir)
	require.NoError(t, err)
	defer store2.Close()

	var count int
	require.NoError(t, store2.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	exists, err := store2.DocumentStore().Exists(context.Background(), "/docs/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewStore_ForeignKeysOnEveryConnection(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	// Open several connections and check the pragma on each.
	conns := make([]interface{ Close() error }, 0, 3)
	for i := 0; i < 3; i++ {
		conn, err := store.db.Conn(ctx)
		require.NoError(t, err)
		conns = append(conns, conn)

		var fk int
		require.NoError(t, conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		assert.Equal(t, 1, fk)
	}
	for _, c := range conns {
		require.NoError(t, c.Close())
	}
}

// ==================== Document Tests ====================

func TestDocumentStore_InsertAndGet(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	rec := newRecord("/docs/notes.txt", "hello world")
	rec.Embedding = &domain.Embedding{Vector: []float32{0.1, 0.2, 0.3}, Model: "gemini-embedding-001"}
	id := insert(t, docs, rec)

	details, err := docs.Get(ctx, id)
	require.NoError(t, err)

	doc := details.Document
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "notes.txt", doc.Filename)
	assert.Equal(t, "/docs/notes.txt", doc.Filepath)
	assert.Equal(t, ".txt", doc.Extension)
	assert.Equal(t, domain.SourceTypeText, doc.SourceType)
	assert.Equal(t, "hello world", doc.Content)
	assert.Equal(t, "hash-hello world", doc.ContentHash)
	assert.True(t, rec.Document.FileCreatedAt.Equal(doc.FileCreatedAt))
	assert.True(t, rec.Document.ProcessedAt.Equal(doc.ProcessedAt))

	require.NotNil(t, details.Metadata)
	assert.Equal(t, "en", details.Metadata.Language)
	assert.Equal(t, []string{"alpha", "beta"}, details.Metadata.Keywords)
	assert.Equal(t, domain.ContentTypeNotes, details.Metadata.ContentType)
	assert.True(t, details.Metadata.IsPrompt)
	assert.False(t, details.Metadata.IsLLMOutput)
	assert.Equal(t, "archaeologist", details.Metadata.Project)
	assert.InDelta(t, 0.8, details.Metadata.Confidence, 1e-9)

	assert.True(t, details.HasEmbedding())
	assert.Equal(t, 3, details.EmbeddingDims)
	assert.Equal(t, "gemini-embedding-001", details.EmbeddingModel)
	assert.Empty(t, details.DuplicateOf)
}

func TestDocumentStore_InsertWithoutCreationTime(t *testing.T) {
	_, docs := setupTestStore(t)

	rec := newRecord("/docs/a.md", "text")
	rec.Document.FileCreatedAt = time.Time{}
	rec.Metadata.Keywords = nil
	id := insert(t, docs, rec)

	details, err := docs.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, details.Document.FileCreatedAt.IsZero())
	assert.NotNil(t, details.Metadata.Keywords)
	assert.Empty(t, details.Metadata.Keywords)
	assert.False(t, details.HasEmbedding())
}

func TestDocumentStore_Get_NotFound(t *testing.T) {
	_, docs := setupTestStore(t)

	_, err := docs.Get(context.Background(), 999)

	require.Error(t, err)
	assert.True(t, domain.IsStorageError(err))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Exists(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	exists, err := docs.Exists(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	insert(t, docs, newRecord("/docs/a.txt", "x"))

	exists, err = docs.Exists(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDocumentStore_FindByHash(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	id := insert(t, docs, newRecord("/docs/a.txt", "same"))

	found, err := docs.FindByHash(ctx, "hash-same")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	_, err = docs.FindByHash(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, domain.IsStorageError(err))

	byPath, err := docs.FindByPath(ctx, "/docs/a.txt")
	require.NoError(t, err)
	assert.Equal(t, id, byPath)

	_, err = docs.FindByPath(ctx, "/docs/missing.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Insert_DuplicateFilepathFails(t *testing.T) {
	_, docs := setupTestStore(t)

	insert(t, docs, newRecord("/docs/a.txt", "first"))
	_, err := docs.Insert(context.Background(), newRecord("/docs/a.txt", "second"))

	require.Error(t, err)
	assert.True(t, domain.IsStorageError(err))
}

func TestDocumentStore_Insert_InvalidRecord(t *testing.T) {
	_, docs := setupTestStore(t)

	_, err := docs.Insert(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = docs.Insert(context.Background(), &domain.IngestRecord{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, domain.IsStorageError(err))
}

func TestDocumentStore_Insert_IsAtomic(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rec *domain.IngestRecord)
	}{
		{
			name: "duplicate referencing missing document",
			mutate: func(rec *domain.IngestRecord) {
				rec.Duplicates = []domain.Duplicate{{DuplicateOfID: 4242, Similarity: 0.99}}
			},
		},
		{
			name: "duplicate with invalid score",
			mutate: func(rec *domain.IngestRecord) {
				rec.Duplicates = []domain.Duplicate{{DuplicateOfID: 1, Similarity: 0}}
			},
		},
		{
			name: "embedding with mismatched dimensions",
			mutate: func(rec *domain.IngestRecord) {
				rec.Embedding = &domain.Embedding{Vector: []float32{1, 2}, Dimensions: 3, Model: "m"}
			},
		},
		{
			name: "confidence outside range",
			mutate: func(rec *domain.IngestRecord) {
				rec.Metadata.Confidence = 2
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, docs := setupTestStore(t)
			ctx := context.Background()

			rec := newRecord("/docs/atomic.txt", "uniqueterm")
			tt.mutate(rec)

			_, err := docs.Insert(ctx, rec)
			require.Error(t, err)
			assert.True(t, domain.IsStorageError(err))

			exists, err := docs.Exists(ctx, "/docs/atomic.txt")
			require.NoError(t, err)
			assert.False(t, exists, "no document row after rollback")

			for _, table := range []string{"documents", "metadata", "embeddings", "duplicates"} {
				var n int
				require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
				assert.Zero(t, n, "table %s should be empty", table)
			}

			results, err := docs.Search(ctx, "uniqueterm", 10)
			require.NoError(t, err)
			assert.Empty(t, results, "index rolls back with the document")
		})
	}
}

func TestDocumentStore_Insert_Replace(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	other := insert(t, docs, newRecord("/docs/other.txt", "other text"))

	old := newRecord("/docs/a.txt", "oldterm content")
	old.Embedding = &domain.Embedding{Vector: []float32{1, 0}, Model: "m"}
	old.Duplicates = []domain.Duplicate{{DuplicateOfID: other, Similarity: 0.97}}
	oldID := insert(t, docs, old)

	replacement := newRecord("/docs/a.txt", "newterm content")
	replacement.Replace = true
	newID := insert(t, docs, replacement)

	assert.Equal(t, oldID, newID, "the id is kept")

	details, err := docs.Get(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, "newterm content", details.Document.Content)
	assert.False(t, details.HasEmbedding(), "the old embedding is cleared")
	assert.Empty(t, details.DuplicateOf, "outgoing relations are cleared")

	hits, err := docs.Search(ctx, "oldterm", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = docs.Search(ctx, "newterm", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, newID, hits[0].Document.ID)

	stats, err := docs.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalDocuments)
}

func TestDocumentStore_Insert_ReplaceKeepsIncomingDuplicates(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	a := insert(t, docs, newRecord("/docs/a.txt", "first draft"))

	b := newRecord("/docs/b.txt", "first draft copy")
	b.Duplicates = []domain.Duplicate{{DuplicateOfID: a, Similarity: 0.98}}
	bID := insert(t, docs, b)

	replacement := newRecord("/docs/a.txt", "second draft")
	replacement.Replace = true
	insert(t, docs, replacement)

	details, err := docs.Get(ctx, bID)
	require.NoError(t, err)
	require.Len(t, details.DuplicateOf, 1)
	assert.Equal(t, a, details.DuplicateOf[0].DuplicateOfID)
	assert.InDelta(t, 0.98, details.DuplicateOf[0].Similarity, 1e-9)
}

func TestDocumentStore_Insert_ReplaceMissingPathInserts(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	rec := newRecord("/docs/new.txt", "fresh")
	rec.Replace = true
	id := insert(t, docs, rec)

	details, err := docs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "fresh", details.Document.Content)
}

func TestDocumentStore_Insert_RejectsSelfDuplicate(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	id := insert(t, docs, newRecord("/docs/a.txt", "text"))

	rec := newRecord("/docs/a.txt", "text again")
	rec.Replace = true
	rec.Duplicates = []domain.Duplicate{{DuplicateOfID: id, Similarity: 0.99}}
	_, err := docs.Insert(ctx, rec)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	details, err := docs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "text", details.Document.Content, "a failed replace leaves the row unchanged")
}

func TestDocumentStore_List(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"a", "b", "c"} {
		ids = append(ids, insert(t, docs, newRecord("/docs/"+name+".txt", name)))
	}

	all, err := docs.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[0], all[0].ID)

	page, err := docs.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)

	empty, err := docs.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDocumentStore_Delete(t *testing.T) {
	store, docs := setupTestStore(t)
	ctx := context.Background()

	a := insert(t, docs, newRecord("/docs/a.txt", "zebra"))
	rec := newRecord("/docs/b.txt", "giraffe")
	rec.Embedding = &domain.Embedding{Vector: []float32{1}, Model: "m"}
	rec.Duplicates = []domain.Duplicate{{DuplicateOfID: a, Similarity: 0.99}}
	b := insert(t, docs, rec)

	require.NoError(t, docs.Delete(ctx, a))

	hits, err := docs.Search(ctx, "zebra", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "delete trigger removes the index row")

	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM duplicates").Scan(&n))
	assert.Zero(t, n, "relation cascades with the older document")

	_, err = docs.Get(ctx, b)
	assert.NoError(t, err)

	err = docs.Delete(ctx, a)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_UpdateTriggerReindexes(t *testing.T) {
	store, docs := setupTestStore(t)
	ctx := context.Background()

	id := insert(t, docs, newRecord("/docs/a.txt", "before"))

	_, err := store.db.Exec("UPDATE documents SET original_text = 'after' WHERE id = ?", id)
	require.NoError(t, err)

	hits, err := docs.Search(ctx, "before", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = docs.Search(ctx, "after", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, id, hits[0].Document.ID)
}

// ==================== Embedding Tests ====================

func TestDocumentStore_Embeddings(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	withVec := newRecord("/docs/a.txt", "a")
	withVec.Embedding = &domain.Embedding{Vector: []float32{1, -0.5, 0.25}, Model: "m"}
	a := insert(t, docs, withVec)
	b := insert(t, docs, newRecord("/docs/b.txt", "b"))

	refs, err := docs.AllEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, a, refs[0].DocumentID)
	assert.Equal(t, []float32{1, -0.5, 0.25}, refs[0].Vector)

	missing, err := docs.DocumentsWithoutEmbedding(ctx, 0)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, b, missing[0].ID)

	require.NoError(t, docs.SaveEmbedding(ctx, &domain.Embedding{
		DocumentID: b, Vector: []float32{0, 1, 0}, Model: "m",
	}))

	refs, err = docs.AllEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, b, refs[1].DocumentID)

	missing, err = docs.DocumentsWithoutEmbedding(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDocumentStore_SaveEmbedding_Errors(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	err := docs.SaveEmbedding(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = docs.SaveEmbedding(ctx, &domain.Embedding{DocumentID: 77, Vector: []float32{1}, Model: "m"})
	require.Error(t, err, "foreign key rejects unknown document")
	assert.True(t, domain.IsStorageError(err))
}

func TestFloat32Conversion(t *testing.T) {
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))

	in := []float32{0, 1.5, -2.25, 3.4028235e38}
	blob := float32SliceToBytes(in)
	assert.Len(t, blob, 16)
	assert.Equal(t, in, bytesToFloat32Slice(blob))
}

// ==================== Duplicate Tests ====================

func TestDocumentStore_Duplicates(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	a := insert(t, docs, newRecord("/docs/a.txt", "a"))
	b := insert(t, docs, newRecord("/docs/b.txt", "b"))
	c := insert(t, docs, newRecord("/docs/c.txt", "c"))

	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, docs.MarkDuplicate(ctx, domain.Duplicate{
		DocumentID: b, DuplicateOfID: a, Similarity: 0.96, DetectedAt: t0,
	}))
	require.NoError(t, docs.MarkDuplicate(ctx, domain.Duplicate{
		DocumentID: c, DuplicateOfID: a, Similarity: 1.0000001, DetectedAt: t0.Add(time.Minute),
	}))

	dups, err := docs.Duplicates(ctx, 0)
	require.NoError(t, err)
	require.Len(t, dups, 2)
	assert.Equal(t, c, dups[0].DocumentID, "newest first")
	assert.Equal(t, 1.0, dups[0].Similarity, "score is capped at one")
	assert.Equal(t, b, dups[1].DocumentID)

	limited, err := docs.Duplicates(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	details, err := docs.Get(ctx, b)
	require.NoError(t, err)
	require.Len(t, details.DuplicateOf, 1)
	assert.Equal(t, a, details.DuplicateOf[0].DuplicateOfID)

	// Re-marking the same pair updates rather than duplicates the row.
	require.NoError(t, docs.MarkDuplicate(ctx, domain.Duplicate{
		DocumentID: b, DuplicateOfID: a, Similarity: 0.97, DetectedAt: t0,
	}))
	dups, err = docs.Duplicates(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, dups, 2)
}

func TestDocumentStore_MarkDuplicate_Invalid(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()
	a := insert(t, docs, newRecord("/docs/a.txt", "a"))

	err := docs.MarkDuplicate(ctx, domain.Duplicate{DocumentID: a, DuplicateOfID: a, Similarity: 0.99})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = docs.MarkDuplicate(ctx, domain.Duplicate{DocumentID: a, DuplicateOfID: 999, Similarity: 0.99})
	require.Error(t, err)
	assert.True(t, domain.IsStorageError(err))
}

// ==================== Search Tests ====================

func TestDocumentStore_Search(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	target := insert(t, docs, newRecord("/docs/a.txt", "the quick brown fox jumps"))
	insert(t, docs, newRecord("/docs/b.txt", "lazy dogs sleep all day"))
	insert(t, docs, newRecord("/docs/c.md", "brown bears and lazy cats"))

	t.Run("term in exactly one document", func(t *testing.T) {
		hits, err := docs.Search(ctx, "fox", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, target, hits[0].Document.ID)
		assert.Contains(t, hits[0].Snippet, "[fox]")
		require.NotNil(t, hits[0].Metadata)
		assert.Equal(t, "testing", hits[0].Metadata.Topic)
	})

	t.Run("term in zero documents", func(t *testing.T) {
		hits, err := docs.Search(ctx, "unicorn", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("term in several documents respects limit", func(t *testing.T) {
		hits, err := docs.Search(ctx, "brown", 10)
		require.NoError(t, err)
		assert.Len(t, hits, 2)

		hits, err = docs.Search(ctx, "brown", 1)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("matches filename", func(t *testing.T) {
		hits, err := docs.Search(ctx, `filename:"c.md"`, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "/docs/c.md", hits[0].Document.Filepath)
	})

	t.Run("empty query", func(t *testing.T) {
		hits, err := docs.Search(ctx, "   ", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("syntax error is a storage error", func(t *testing.T) {
		_, err := docs.Search(ctx, `"unterminated`, 10)
		require.Error(t, err)
		assert.True(t, domain.IsStorageError(err))
	})
}

// ==================== Statistics Tests ====================

func TestDocumentStore_Statistics(t *testing.T) {
	_, docs := setupTestStore(t)
	ctx := context.Background()

	empty, err := docs.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalDocuments)
	assert.Empty(t, empty.ByLanguage)

	a := newRecord("/docs/a.txt", "a")
	a.Embedding = &domain.Embedding{Vector: []float32{1}, Model: "m"}
	aID := insert(t, docs, a)

	b := newRecord("/docs/b.md", "b")
	b.Metadata.Language = "de"
	b.Duplicates = []domain.Duplicate{{DuplicateOfID: aID, Similarity: 0.99}}
	insert(t, docs, b)

	insert(t, docs, newRecord("/docs/c.txt", "c"))

	stats, err := docs.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDocuments)
	assert.Equal(t, 1, stats.TotalEmbeddings)
	assert.Equal(t, 1, stats.TotalDuplicates)
	assert.Equal(t, map[string]int{"en": 2, "de": 1}, stats.ByLanguage)
	assert.Equal(t, map[string]int{"text": 2, "markdown": 1}, stats.BySourceType)
	assert.Equal(t, map[string]int{".txt": 2, ".md": 1}, stats.ByExtension)
}

// ==================== Error Wrapping Tests ====================

func TestStorageError_Wrapping(t *testing.T) {
	boom := errors.New("boom")
	wrapped := storageError("x", boom)
	assert.ErrorIs(t, wrapped, boom)
	assert.True(t, domain.IsStorageError(wrapped))

	assert.ErrorIs(t, storageError("get", sql.ErrNoRows), domain.ErrNotFound)

	nested := storageError("outer", storageError("inner", domain.ErrNotFound))
	var se *domain.StorageError
	require.True(t, errors.As(nested, &se))
	assert.Equal(t, "inner", se.Op, "existing storage errors are not re-wrapped")
}

func TestClosedStore_ReturnsStorageErrors(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	docs := store.DocumentStore()
	require.NoError(t, store.Close())

	_, err = docs.Exists(context.Background(), "/x")
	assert.True(t, domain.IsStorageError(err))

	_, err = docs.Statistics(context.Background())
	assert.True(t, domain.IsStorageError(err))
}

func TestNewStore_DefaultDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := NewStore("")
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(home, ".archaeologist", "data", DatabaseFile), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}
