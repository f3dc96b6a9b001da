// Package ollama provides an embedding provider adapter using Ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/archaeologist/internal/adapters/driven/embedding"
	"github.com/custodia-labs/archaeologist/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL       = "http://localhost:11434"
	DefaultModel         = "nomic-embed-text"
	DefaultTimeout       = 30 * time.Second
	DefaultDimensions    = 768 // nomic-embed-text default
	DefaultBatchSize     = 32
	DefaultMaxInputChars = 8_000

	providerName = "ollama"
)

// Config holds configuration for the Ollama embedding provider.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int

	// RetryDelay is the initial backoff between transient failures.
	RetryDelay time.Duration
}

// Provider generates embeddings using a local Ollama server.
type Provider struct {
	client     *httpapi.Client
	baseURL    string
	model      string
	dimensions int
}

// embedRequest is the Ollama /api/embed request format.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the Ollama /api/embed response format.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// NewProvider creates a new Ollama embedding provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client: httpapi.New(providerName,
			httpapi.WithTimeout(cfg.Timeout),
			httpapi.WithRetry(httpapi.DefaultAttempts, cfg.RetryDelay),
		),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: embedding.Dimensions(cfg.Dimensions, cfg.Model, DefaultDimensions),
	}
}

// Embed generates a vector embedding for the given text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	body := embedRequest{Model: p.model, Input: texts}
	if err := p.client.PostJSON(ctx, "embed", p.baseURL+"/api/embed", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &domain.ProviderError{Provider: providerName, Op: "embed", Err: errors.New(resp.Error)}
	}
	if err := embedding.CheckCount(providerName, len(texts), len(resp.Embeddings)); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, values := range resp.Embeddings {
		vectors[i] = embedding.ToFloat32(values)
	}
	return vectors, nil
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

// Ping checks that the server is up by listing local models.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.GetJSON(ctx, "ping", p.baseURL+"/api/tags", nil, nil); err != nil {
		return fmt.Errorf("ollama: service not reachable at %s: %w", p.baseURL, err)
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
