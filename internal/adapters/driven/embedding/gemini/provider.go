// Package gemini provides an embedding provider adapter using the Gemini API.
//
// Every request first reserves its estimated token cost against a
// ratelimit.Limiter, so a run stays under the free-tier ceilings. A spent
// daily quota surfaces as *domain.QuotaExceededError without a network call.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"

	"github.com/custodia-labs/archaeologist/internal/adapters/driven/embedding"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/logger"
	"github.com/custodia-labs/archaeologist/internal/ratelimit"
)

// Ensure Provider implements the interface.
var (
	_ driven.EmbeddingProvider = (*Provider)(nil)
	_ driven.QuotaReporter     = (*Provider)(nil)
)

// Default configuration values.
const (
	DefaultModel         = "gemini-embedding-001"
	DefaultDimensions    = 768
	DefaultBatchSize     = 100
	DefaultMaxInputChars = 30_000

	// TaskType tunes embeddings for documents that are later compared.
	TaskType = "RETRIEVAL_DOCUMENT"

	providerName = "gemini"
)

// Config holds configuration for the Gemini embedding provider.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL overrides the API endpoint. Empty uses Google's default.
	BaseURL string

	// Model is the embedding model to use (default: gemini-embedding-001).
	Model string

	// Dimensions is the requested output dimensionality (default: 768).
	Dimensions int

	// Limiter bounds requests and daily tokens. Nil uses ratelimit.DefaultConfig.
	Limiter *ratelimit.Limiter
}

// Provider generates embeddings using the Gemini API.
type Provider struct {
	svc        *generativelanguage.Service
	limiter    *ratelimit.Limiter
	model      string
	dimensions int
}

// NewProvider creates a new Gemini embedding provider.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = embedding.Dimensions(0, strings.TrimPrefix(cfg.Model, "models/"), DefaultDimensions)
	}
	if cfg.Limiter == nil {
		cfg.Limiter = ratelimit.New(ratelimit.DefaultConfig())
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	svc, err := generativelanguage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Provider{
		svc:        svc,
		limiter:    cfg.Limiter,
		model:      strings.TrimPrefix(cfg.Model, "models/"),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Reserve(ctx, ratelimit.EstimateTokens(text)); err != nil {
		return nil, err
	}

	resp, err := p.svc.Models.EmbedContent(p.resource(), p.request(text)).Context(ctx).Do()
	if err != nil {
		return nil, classify("embed", err)
	}
	if resp.Embedding == nil {
		return nil, classify("embed", errors.New("no embedding returned"))
	}
	return embedding.ToFloat32(resp.Embedding.Values), nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	tokens := 0
	requests := make([]*generativelanguage.EmbedContentRequest, len(texts))
	for i, text := range texts {
		tokens += ratelimit.EstimateTokens(text)
		requests[i] = p.request(text)
	}
	if err := p.limiter.Reserve(ctx, tokens); err != nil {
		return nil, err
	}

	logger.Debug("gemini: embedding batch of %d (~%d tokens)", len(texts), tokens)
	resp, err := p.svc.Models.BatchEmbedContents(p.resource(), &generativelanguage.BatchEmbedContentsRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return nil, classify("embed", err)
	}
	if err := embedding.CheckCount(providerName, len(texts), len(resp.Embeddings)); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, classify("embed", fmt.Errorf("embedding %d missing", i))
		}
		vectors[i] = embedding.ToFloat32(e.Values)
	}
	return vectors, nil
}

func (p *Provider) resource() string {
	return "models/" + p.model
}

func (p *Provider) request(text string) *generativelanguage.EmbedContentRequest {
	return &generativelanguage.EmbedContentRequest{
		Model: p.resource(),
		Content: &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: text}},
		},
		TaskType:             TaskType,
		OutputDimensionality: int64(p.dimensions),
	}
}

// Name identifies the provider.
func (p *Provider) Name() string {
	return providerName
}

// Dimensions returns the embedding vector size.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// ModelName returns the name of the embedding model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// BatchSize returns the maximum number of texts per request.
func (p *Provider) BatchSize() int {
	return DefaultBatchSize
}

// MaxInputChars returns the character budget for a single input.
func (p *Provider) MaxInputChars() int {
	return DefaultMaxInputChars
}

// Usage reports the limiter's counters.
func (p *Provider) Usage() domain.QuotaUsage {
	return p.limiter.Usage().Quota()
}

// Ping validates the API key by fetching the model description.
// It does not count against the limiter.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.svc.Models.Get(p.resource()).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", classify("ping", err))
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
