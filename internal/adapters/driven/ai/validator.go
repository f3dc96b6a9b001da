package ai

import (
	"context"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateAnalysis validates an analysis configuration by pinging the provider.
func (v *ConfigValidator) ValidateAnalysis(config *domain.AnalysisSettings) error {
	return ValidateAnalysisConfig(context.Background(), config)
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(context.Background(), config)
}
