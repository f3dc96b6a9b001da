// Package openai provides an analysis provider adapter using the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/archaeologist/internal/adapters/driven/analysis"
	"github.com/custodia-labs/archaeologist/internal/adapters/driven/httpapi"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// Ensure Provider implements the interfaces.
var (
	_ driven.AnalysisProvider = (*Provider)(nil)
	_ driven.PromptStoreAware = (*Provider)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL       = "https://api.openai.com/v1"
	DefaultModel         = "gpt-4o-mini"
	DefaultTimeout       = 120 * time.Second
	DefaultMaxInputChars = 100_000

	providerName = "openai"
)

// Config holds configuration for the OpenAI provider.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerMinute throttles calls locally. Zero disables throttling.
	RequestsPerMinute int

	// RetryDelay is the initial backoff between transient failures.
	RetryDelay time.Duration
}

// Provider extracts document metadata with JSON-mode chat completions.
type Provider struct {
	client      *httpapi.Client
	baseURL     string
	apiKey      string
	model       string
	promptStore driven.PromptStore
}

// chatRequest is the OpenAI /chat/completions request format.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// chatMessage is the OpenAI chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the OpenAI /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewProvider creates a new OpenAI analysis provider.
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
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Analyze returns the metadata for one document.
func (p *Provider) Analyze(ctx context.Context, req driven.AnalysisRequest) (*domain.Metadata, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysis.JSONSystemPrompt(p.promptStore)},
			{Role: "user", Content: analysis.UserPrompt(p.promptStore, req)},
		},
		MaxTokens:      analysis.MaxOutputTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	var resp chatResponse
	if err := p.client.PostJSON(ctx, "analyze", p.baseURL+"/chat/completions", p.headers(), body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, p.errorf("openai error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, p.errorf("no choices returned")
	}

	meta, err := analysis.ParseMetadata([]byte(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, p.errorf("%w", err)
	}
	return meta, nil
}

func (p *Provider) errorf(format string, args ...any) error {
	return &domain.ProviderError{Provider: providerName, Op: "analyze", Err: fmt.Errorf(format, args...)}
}

func (p *Provider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

// Name identifies the provider.
func (p *Provider) Name() string {
	return providerName
}

// ModelName returns the name of the model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// MaxInputChars returns the character budget for document text.
func (p *Provider) MaxInputChars() int {
	return DefaultMaxInputChars
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (p *Provider) SetPromptStore(store driven.PromptStore) {
	p.promptStore = store
}

// Ping validates the API key by listing models.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.GetJSON(ctx, "ping", p.baseURL+"/models", p.headers(), nil); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}
