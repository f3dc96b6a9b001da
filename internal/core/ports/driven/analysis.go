package driven

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// AnalysisRequest is the input to an AnalysisProvider.
type AnalysisRequest struct {
	// Text is the (possibly truncated) document text.
	Text string

	// Filename is the base name of the file.
	Filename string

	// Extension is the file extension including the dot.
	Extension string

	// SourceType is the format classification.
	SourceType domain.SourceType
}

// AnalysisProvider extracts structured metadata from document text.
//
// Implementations must return a *domain.RateLimitError when the provider
// refuses a call for throughput reasons, and a *domain.ProviderError for
// auth failures, malformed responses and network errors.
type AnalysisProvider interface {
	// Analyze returns the metadata for one document.
	Analyze(ctx context.Context, req AnalysisRequest) (*domain.Metadata, error)

	// Name identifies the provider in logs and errors.
	Name() string

	// ModelName returns the name of the model being used.
	ModelName() string

	// MaxInputChars returns the character budget for Text.
	MaxInputChars() int

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
