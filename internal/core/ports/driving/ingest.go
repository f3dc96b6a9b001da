package driving

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// IngestService runs the ingestion pipeline over a directory tree.
type IngestService interface {
	// Run ingests every supported file under opts.Root, one document at a time.
	// Per-document failures are counted in the summary and never abort the run.
	// If events is non-nil, state transitions are sent on it; the caller
	// must drain it and owns closing it.
	// The returned error is non-nil only for failures that stop the whole run.
	Run(ctx context.Context, opts domain.RunOptions, events chan<- domain.Event) (*domain.RunSummary, error)
}

// EmbeddingBackfill generates embeddings for stored documents that lack one.
type EmbeddingBackfill interface {
	// Backfill embeds up to limit documents and records near-duplicates.
	Backfill(ctx context.Context, limit int) (*BackfillResult, error)
}

// BackfillResult reports the outcome of a backfill.
type BackfillResult struct {
	// Embedded is the number of documents that gained an embedding.
	Embedded int

	// Duplicates is the number of near-duplicate relations recorded.
	Duplicates int

	// Remaining is the number of documents still lacking an embedding
	// because the provider deferred them.
	Remaining int
}
