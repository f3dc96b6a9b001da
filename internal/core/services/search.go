package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driving"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService provides full-text search over stored documents.
type SearchService struct {
	docStore driven.DocumentStore
}

// NewSearchService creates a new search service.
func NewSearchService(docStore driven.DocumentStore) *SearchService {
	return &SearchService{docStore: docStore}
}

// Search runs a ranked full-text query.
// Unless opts.Raw is set, each word is quoted so user input cannot be
// parsed as index syntax.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q (raw=%t)", query, opts.Raw)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	ftsQuery := query
	if !opts.Raw {
		ftsQuery = QuoteFTSQuery(query)
	}
	if ftsQuery == "" {
		return []domain.SearchResult{}, nil
	}

	results, err := s.docStore.Search(ctx, ftsQuery, opts.EffectiveLimit())
	if err != nil {
		return nil, err
	}
	logger.Debug("Results: %d", len(results))

	if results == nil {
		results = []domain.SearchResult{}
	}
	return results, nil
}

// QuoteFTSQuery turns free text into an FTS5 query matching every word.
// Each word becomes a quoted string with embedded quotes doubled.
func QuoteFTSQuery(query string) string {
	words := strings.Fields(query)
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, `"`)
		if w == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(w, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
