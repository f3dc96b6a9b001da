// Package ollama provides an analysis provider adapter using a local Ollama server.
package ollama

import (
	"context"
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
	DefaultBaseURL       = "http://localhost:11434"
	DefaultModel         = "llama3.2"
	DefaultTimeout       = 300 * time.Second
	DefaultMaxInputChars = 30_000

	providerName = "ollama"
)

// Config holds configuration for the Ollama provider.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 300s).
	Timeout time.Duration

	// RetryDelay is the initial backoff between transient failures.
	RetryDelay time.Duration
}

// Provider extracts document metadata with a local model in JSON mode.
type Provider struct {
	client      *httpapi.Client
	baseURL     string
	model       string
	promptStore driven.PromptStore
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// NewProvider creates a new Ollama analysis provider.
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
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Analyze returns the metadata for one document.
func (p *Provider) Analyze(ctx context.Context, req driven.AnalysisRequest) (*domain.Metadata, error) {
	body := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysis.JSONSystemPrompt(p.promptStore)},
			{Role: "user", Content: analysis.UserPrompt(p.promptStore, req)},
		},
		Stream:  false,
		Format:  "json",
		Options: &options{NumPredict: analysis.MaxOutputTokens},
	}

	var resp chatResponse
	if err := p.client.PostJSON(ctx, "analyze", p.baseURL+"/api/chat", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, p.errorf("ollama error: %s", resp.Error)
	}

	meta, err := analysis.ParseMetadata([]byte(resp.Message.Content))
	if err != nil {
		return nil, p.errorf("%w", err)
	}
	return meta, nil
}

func (p *Provider) errorf(format string, args ...any) error {
	return &domain.ProviderError{Provider: providerName, Op: "analyze", Err: fmt.Errorf(format, args...)}
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
