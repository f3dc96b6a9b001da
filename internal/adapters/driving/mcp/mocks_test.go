package mcp

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	details   *domain.DocumentDetails
	stats     *domain.Statistics
	err       error
}

func (m *mockDocumentService) Get(_ context.Context, _ int64) (*domain.DocumentDetails, error) {
	return m.details, m.err
}

func (m *mockDocumentService) List(_ context.Context, _, _ int) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Duplicates(_ context.Context, _ int) ([]domain.Duplicate, error) {
	return nil, m.err
}

func (m *mockDocumentService) Statistics(_ context.Context) (*domain.Statistics, error) {
	return m.stats, m.err
}

func (m *mockDocumentService) Failures(_ context.Context, _ int) ([]domain.Failure, error) {
	return nil, m.err
}
