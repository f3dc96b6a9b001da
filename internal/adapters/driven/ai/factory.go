// Package ai provides factory functions for creating AI provider adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicanalysis "github.com/custodia-labs/archaeologist/internal/adapters/driven/analysis/anthropic"
	ollamaanalysis "github.com/custodia-labs/archaeologist/internal/adapters/driven/analysis/ollama"
	openaianalysis "github.com/custodia-labs/archaeologist/internal/adapters/driven/analysis/openai"
	geminiembed "github.com/custodia-labs/archaeologist/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/archaeologist/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/archaeologist/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/logger"
	"github.com/custodia-labs/archaeologist/internal/ratelimit"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the providers an ingest run works with.
type InitResult struct {
	Analysis  driven.AnalysisProvider
	Embedding driven.EmbeddingProvider // Nil when embeddings are off or unavailable.
	Warnings  []string                 // Non-fatal issues that disabled embeddings.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedding != nil {
		_ = r.Embedding.Close()
	}
	if r.Analysis != nil {
		_ = r.Analysis.Close()
	}
}

// Initialise builds and pings the providers described by settings.
//
// A missing or unreachable analysis provider is fatal. A failing embedding
// provider only adds a warning, since near-duplicate detection is optional.
func Initialise(ctx context.Context, settings *domain.AppSettings, prompts driven.PromptStore) (*InitResult, error) {
	analysis, err := CreateAndValidateAnalysisProvider(ctx, &settings.Analysis, prompts)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, fmt.Errorf("%w: no %s API key configured",
			domain.ErrAnalysisUnavailable, settings.Analysis.Provider)
	}

	result := &InitResult{Analysis: analysis}

	embedding, err := CreateAndValidateEmbeddingProvider(ctx, &settings.Embedding, settings.RateLimit)
	if err != nil {
		logger.Warn("embeddings disabled: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
	}
	result.Embedding = embedding

	return result, nil
}

// CreateAndValidateAnalysisProvider creates an analysis provider and validates connectivity.
// Returns nil if the provider is not configured.
func CreateAndValidateAnalysisProvider(
	ctx context.Context,
	settings *domain.AnalysisSettings,
	prompts driven.PromptStore,
) (driven.AnalysisProvider, error) {
	provider, err := CreateAnalysisProvider(settings, prompts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnalysisUnavailable, err)
	}
	if provider == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := provider.Ping(pingCtx); err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'archaeologist settings validate' to check",
			domain.ErrAnalysisUnavailable, err)
	}
	return provider, nil
}

// CreateAndValidateEmbeddingProvider creates an embedding provider and validates connectivity.
// Returns nil if embeddings are disabled or not configured.
func CreateAndValidateEmbeddingProvider(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
	limits domain.RateLimitSettings,
) (driven.EmbeddingProvider, error) {
	provider, err := CreateEmbeddingProvider(ctx, settings, limits)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if provider == nil {
		return nil, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := provider.Ping(pingCtx); err != nil {
		_ = provider.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return provider, nil
}

// CreateAnalysisProvider creates the analysis provider named by settings.
// Returns nil if the provider is not configured. The prompt store may be nil.
func CreateAnalysisProvider(settings *domain.AnalysisSettings, prompts driven.PromptStore) (driven.AnalysisProvider, error) {
	if settings == nil {
		return nil, nil
	}
	if !settings.Provider.SupportsAnalysis() {
		return nil, fmt.Errorf("%s does not support analysis, use anthropic, openai or ollama", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	var provider driven.AnalysisProvider
	switch settings.Provider {
	case domain.AIProviderAnthropic:
		p, err := anthropicanalysis.NewProvider(anthropicanalysis.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		provider = p

	case domain.AIProviderOpenAI:
		p, err := openaianalysis.NewProvider(openaianalysis.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		provider = p

	case domain.AIProviderOllama:
		provider = ollamaanalysis.NewProvider(ollamaanalysis.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported analysis provider: %s", settings.Provider)
	}

	if aware, ok := provider.(driven.PromptStoreAware); ok && prompts != nil {
		aware.SetPromptStore(prompts)
	}
	return provider, nil
}

// CreateEmbeddingProvider creates the embedding provider named by settings.
// Returns nil if embeddings are disabled or not configured.
func CreateEmbeddingProvider(
	ctx context.Context,
	settings *domain.EmbeddingSettings,
	limits domain.RateLimitSettings,
) (driven.EmbeddingProvider, error) {
	if settings == nil || !settings.Enabled {
		return nil, nil
	}
	if !settings.Provider.SupportsEmbedding() {
		return nil, fmt.Errorf("%s does not support embeddings, use gemini, openai or ollama", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		limiter := ratelimit.New(ratelimit.Config{
			RequestsPerMinute: limits.RequestsPerMinute,
			TokensPerDay:      limits.TokensPerDay,
			Provider:          string(domain.AIProviderGemini),
		})
		return geminiembed.NewProvider(ctx, geminiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
			Limiter:    limiter,
		})

	case domain.AIProviderOpenAI:
		return openaiembed.NewProvider(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerMinute: limits.RequestsPerMinute,
		})

	case domain.AIProviderOllama:
		return ollamaembed.NewProvider(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// ValidateAnalysisConfig creates an analysis provider and pings it.
func ValidateAnalysisConfig(ctx context.Context, settings *domain.AnalysisSettings) error {
	provider, err := CreateAnalysisProvider(settings, nil)
	if err != nil || provider == nil {
		return err
	}
	defer provider.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return provider.Ping(pingCtx)
}

// ValidateEmbeddingConfig creates an embedding provider and pings it.
// Returns nil if embeddings are disabled.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	provider, err := CreateEmbeddingProvider(ctx, settings, domain.RateLimitSettings{})
	if err != nil || provider == nil {
		return err
	}
	defer provider.Close()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return provider.Ping(pingCtx)
}
