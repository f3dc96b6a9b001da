// Package openai provides an embedding provider adapter using the OpenAI API.
package openai

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
	DefaultBaseURL       = "https://api.openai.com/v1"
	DefaultModel         = "text-embedding-3-small"
	DefaultTimeout       = 60 * time.Second
	DefaultBatchSize     = 100
	DefaultMaxInputChars = 30_000

	providerName = "openai"
)

// Config holds configuration for the OpenAI embedding provider.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only applicable to text-embedding-3-* models.
	Dimensions int

	// RequestsPerMinute throttles calls locally. Zero disables throttling.
	RequestsPerMinute int

	// RetryDelay is the initial backoff between transient failures.
	RetryDelay time.Duration
}

// Provider generates embeddings using the OpenAI API.
type Provider struct {
	client     *httpapi.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
}

// embeddingRequest is the OpenAI API request format.
type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

// embeddingResponse is the OpenAI API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewProvider creates a new OpenAI embedding provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
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
			httpapi.WithRequestsPerMinute(cfg.RequestsPerMinute),
			httpapi.WithRetry(httpapi.DefaultAttempts, cfg.RetryDelay),
		),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: embedding.Dimensions(cfg.Dimensions, cfg.Model, 1536),
	}, nil
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

	body := embeddingRequest{Model: p.model, Input: texts}
	// Only text-embedding-3-* models accept a dimensions override.
	if strings.HasPrefix(p.model, "text-embedding-3-") {
		body.Dimensions = p.dimensions
	}

	var resp embeddingResponse
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := p.client.PostJSON(ctx, "embed", p.baseURL+"/embeddings", headers, body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &domain.ProviderError{Provider: providerName, Op: "embed", Err: errors.New(resp.Error.Message)}
	}
	if err := embedding.CheckCount(providerName, len(texts), len(resp.Data)); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, &domain.ProviderError{
				Provider: providerName, Op: "embed", Err: fmt.Errorf("embedding index %d out of range", data.Index),
			}
		}
		vectors[data.Index] = embedding.ToFloat32(data.Embedding)
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

// Ping validates the API key by listing models.
func (p *Provider) Ping(ctx context.Context) error {
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := p.client.GetJSON(ctx, "ping", p.baseURL+"/models", headers, nil); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
