// Package anthropic provides an analysis provider adapter using the Anthropic API.
package anthropic

import (
	"context"
	"encoding/json"
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
	DefaultBaseURL       = "https://api.anthropic.com"
	DefaultModel         = "claude-3-5-haiku-latest"
	DefaultTimeout       = 120 * time.Second
	DefaultMaxInputChars = 100_000

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"

	providerName = "anthropic"
)

// Config holds configuration for the Anthropic provider.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-5-haiku-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerMinute throttles calls locally. Zero disables throttling.
	RequestsPerMinute int

	// RetryDelay is the initial backoff between transient failures.
	RetryDelay time.Duration
}

// Provider extracts document metadata with Claude tool use.
type Provider struct {
	client      *httpapi.Client
	baseURL     string
	apiKey      string
	model       string
	promptStore driven.PromptStore
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model      string            `json:"model"`
	Messages   []messagesMessage `json:"messages"`
	MaxTokens  int               `json:"max_tokens"`
	System     string            `json:"system,omitempty"`
	Tools      []tool            `json:"tools,omitempty"`
	ToolChoice *toolChoice       `json:"tool_choice,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewProvider creates a new Anthropic analysis provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
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

// Analyze returns the metadata for one document. The model is forced to
// answer through the extract_metadata tool.
func (p *Provider) Analyze(ctx context.Context, req driven.AnalysisRequest) (*domain.Metadata, error) {
	body := messagesRequest{
		Model:     p.model,
		MaxTokens: analysis.MaxOutputTokens,
		System:    analysis.SystemPrompt(p.promptStore),
		Messages: []messagesMessage{
			{Role: "user", Content: analysis.UserPrompt(p.promptStore, req)},
		},
		Tools: []tool{{
			Name:        analysis.ToolName,
			Description: "Extracts structured metadata from a document.",
			InputSchema: analysis.Schema(),
		}},
		ToolChoice: &toolChoice{Type: "tool", Name: analysis.ToolName},
	}

	var resp messagesResponse
	if err := p.client.PostJSON(ctx, "analyze", p.baseURL+"/v1/messages", p.headers(), body, &resp); err != nil {
		return nil, p.classify(err)
	}

	if resp.Error != nil {
		if strings.Contains(strings.ToLower(resp.Error.Type), "rate_limit") {
			return nil, &domain.RateLimitError{Provider: providerName, Err: errors.New(resp.Error.Message)}
		}
		return nil, p.errorf("anthropic error: %s", resp.Error.Message)
	}

	for _, block := range resp.Content {
		if block.Type == "tool_use" && block.Name == analysis.ToolName {
			meta, err := analysis.ParseMetadata(block.Input)
			if err != nil {
				return nil, p.errorf("tool input: %w", err)
			}
			return meta, nil
		}
	}
	return nil, p.errorf("no structured output received")
}

// classify turns an error body of type rate_limit_error into a rate-limit error.
func (p *Provider) classify(err error) error {
	var pe *domain.ProviderError
	if errors.As(err, &pe) && strings.Contains(pe.Error(), "rate_limit") {
		return &domain.RateLimitError{Provider: providerName, Err: pe.Err}
	}
	return err
}

func (p *Provider) errorf(format string, args ...any) error {
	return &domain.ProviderError{Provider: providerName, Op: "analyze", Err: fmt.Errorf(format, args...)}
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}
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
// If not set, the provider uses the built-in prompts.
func (p *Provider) SetPromptStore(store driven.PromptStore) {
	p.promptStore = store
}

// Ping validates the API key by listing models, without running inference.
func (p *Provider) Ping(ctx context.Context) error {
	if err := p.client.GetJSON(ctx, "ping", p.baseURL+"/v1/models", p.headers(), nil); err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
