package driving

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// DocumentService provides read access to stored documents.
type DocumentService interface {
	// Get retrieves a document with its metadata and duplicate relations.
	Get(ctx context.Context, id int64) (*domain.DocumentDetails, error)

	// List returns a page of documents ordered by id.
	List(ctx context.Context, offset, limit int) ([]domain.Document, error)

	// Duplicates returns recorded near-duplicate relations, newest first.
	Duplicates(ctx context.Context, limit int) ([]domain.Duplicate, error)

	// Statistics aggregates counts over the store.
	Statistics(ctx context.Context) (*domain.Statistics, error)

	// Failures returns the most recent persisted failures.
	Failures(ctx context.Context, limit int) ([]domain.Failure, error)
}
