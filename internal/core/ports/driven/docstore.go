package driven

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// DocumentStore persists documents with their metadata, embeddings and
// duplicate relations, and maintains the full-text index.
//
// Every error returned is a *domain.StorageError. Missing rows wrap
// domain.ErrNotFound.
type DocumentStore interface {
	// Exists reports whether a document with this filepath is stored.
	Exists(ctx context.Context, filepath string) (bool, error)

	// FindByHash returns the id of a stored document with this content hash.
	// Returns domain.ErrNotFound if there is none.
	FindByHash(ctx context.Context, contentHash string) (int64, error)

	// FindByPath returns the id of the document stored at filepath.
	// Returns domain.ErrNotFound if there is none.
	FindByPath(ctx context.Context, filepath string) (int64, error)

	// Insert writes a document, its metadata, its optional embedding and
	// its duplicate relations in one transaction and returns the new id.
	// Nothing is persisted if any part fails.
	Insert(ctx context.Context, record *domain.IngestRecord) (int64, error)

	// Get retrieves a document joined with its metadata.
	Get(ctx context.Context, id int64) (*domain.DocumentDetails, error)

	// List returns documents ordered by id.
	List(ctx context.Context, offset, limit int) ([]domain.Document, error)

	// Delete removes a document and everything that references it.
	// This is an administrative operation; ingestion never deletes.
	Delete(ctx context.Context, id int64) error

	// AllEmbeddings returns every stored (document id, vector) pair in id order.
	AllEmbeddings(ctx context.Context) ([]domain.EmbeddingRef, error)

	// SaveEmbedding stores the embedding of an existing document.
	SaveEmbedding(ctx context.Context, embedding *domain.Embedding) error

	// DocumentsWithoutEmbedding returns stored documents lacking an embedding.
	DocumentsWithoutEmbedding(ctx context.Context, limit int) ([]domain.Document, error)

	// MarkDuplicate records a near-duplicate relation.
	MarkDuplicate(ctx context.Context, dup domain.Duplicate) error

	// Duplicates returns recorded relations, newest first.
	Duplicates(ctx context.Context, limit int) ([]domain.Duplicate, error)

	// Search runs a full-text query and returns ranked results.
	// The query is passed to the index as-is.
	Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)

	// Statistics aggregates counts over the store.
	Statistics(ctx context.Context) (*domain.Statistics, error)
}
