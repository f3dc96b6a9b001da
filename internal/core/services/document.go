package services

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DefaultListLimit is used when a list call has no positive limit.
const DefaultListLimit = 50

// DocumentService provides read access to stored documents.
type DocumentService struct {
	docStore driven.DocumentStore
	failures driven.FailureLog
}

// NewDocumentService creates a new document service.
// The failure log is optional (can be nil).
func NewDocumentService(docStore driven.DocumentStore, failures driven.FailureLog) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		failures: failures,
	}
}

// Get retrieves a document with its metadata and duplicate relations.
func (s *DocumentService) Get(ctx context.Context, id int64) (*domain.DocumentDetails, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return s.docStore.Get(ctx, id)
}

// List returns a page of documents ordered by id.
func (s *DocumentService) List(ctx context.Context, offset, limit int) ([]domain.Document, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.docStore.List(ctx, offset, limit)
}

// Duplicates returns recorded near-duplicate relations, newest first.
func (s *DocumentService) Duplicates(ctx context.Context, limit int) ([]domain.Duplicate, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.docStore.Duplicates(ctx, limit)
}

// Statistics aggregates counts over the store.
func (s *DocumentService) Statistics(ctx context.Context) (*domain.Statistics, error) {
	return s.docStore.Statistics(ctx)
}

// Failures returns the most recent persisted failures.
func (s *DocumentService) Failures(ctx context.Context, limit int) ([]domain.Failure, error) {
	if s.failures == nil {
		return []domain.Failure{}, nil
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.failures.Recent(ctx, limit)
}
