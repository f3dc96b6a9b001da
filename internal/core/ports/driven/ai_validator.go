package driven

import "github.com/custodia-labs/archaeologist/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateAnalysis validates an analysis configuration by pinging the provider.
	ValidateAnalysis(config *domain.AnalysisSettings) error

	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	// Returns nil if embeddings are disabled.
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}
