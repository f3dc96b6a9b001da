package driving

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// SearchService provides full-text search over ingested documents.
type SearchService interface {
	// Search returns ranked results for the query.
	// An empty query returns no results.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
