// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// EmbeddingProvider generates fixed-length vector embeddings from text.
// This is an optional service - when nil, near-duplicate detection is skipped.
//
// Implementations must return a *domain.RateLimitError (or an error matching
// domain.ErrRateLimited) when the provider refuses a call for throughput or
// quota reasons, and a *domain.ProviderError for any other failure.
//
// Implementations may include:
//   - Gemini (gemini-embedding-001)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingProvider interface {
	// Name returns the provider identifier.
	Name() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result is index-aligned with texts. Callers split input into
	// chunks of at most BatchSize.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// BatchSize returns the maximum number of texts per EmbedBatch request.
	BatchSize() int

	// MaxInputChars returns the character budget for a single input.
	MaxInputChars() int

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// QuotaReporter is implemented by embedding providers that enforce a daily
// token quota locally.
type QuotaReporter interface {
	Usage() domain.QuotaUsage
}
