package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

func newOllamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil providers", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateAnalysisProvider(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.AnalysisSettings
		wantNil     bool
		wantName    string
		errContains string
	}{
		{name: "nil settings returns nil", wantNil: true},
		{
			name:     "missing key returns nil",
			settings: &domain.AnalysisSettings{Provider: domain.AIProviderAnthropic},
			wantNil:  true,
		},
		{
			name:     "anthropic",
			settings: &domain.AnalysisSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantName: "anthropic",
		},
		{
			name:     "openai",
			settings: &domain.AnalysisSettings{Provider: domain.AIProviderOpenAI, APIKey: "k"},
			wantName: "openai",
		},
		{
			name:     "ollama needs no key",
			settings: &domain.AnalysisSettings{Provider: domain.AIProviderOllama},
			wantName: "ollama",
		},
		{
			name:        "gemini cannot analyse",
			settings:    &domain.AnalysisSettings{Provider: domain.AIProviderGemini, APIKey: "k"},
			wantNil:     true,
			errContains: "does not support analysis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := CreateAnalysisProvider(tt.settings, nil)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, provider)
				return
			}
			require.NotNil(t, provider)
			assert.Equal(t, tt.wantName, provider.Name())
		})
	}
}

type recordingPrompts struct{ loads []string }

func (r *recordingPrompts) Load(name string) (string, error) {
	r.loads = append(r.loads, name)
	return "", nil
}

func (r *recordingPrompts) Reload() {}

func TestCreateAnalysisProvider_WiresPromptStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"content":"{}"},"done":true}`))
	}))
	defer server.Close()

	prompts := &recordingPrompts{}
	provider, err := CreateAnalysisProvider(&domain.AnalysisSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	}, prompts)
	require.NoError(t, err)

	_, err = provider.Analyze(context.Background(), driven.AnalysisRequest{Text: "x"})
	require.NoError(t, err)
	assert.Contains(t, prompts.loads, driven.PromptAnalysisSystem)
	assert.Contains(t, prompts.loads, driven.PromptAnalysisUser)
}

func TestCreateEmbeddingProvider(t *testing.T) {
	ctx := context.Background()
	limits := domain.RateLimitSettings{RequestsPerMinute: 15, TokensPerDay: 1000}

	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantModel   string
		wantDims    int
		errContains string
	}{
		{name: "nil settings returns nil", wantNil: true},
		{
			name:     "disabled returns nil",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOllama},
			wantNil:  true,
		},
		{
			name:     "missing key returns nil",
			settings: &domain.EmbeddingSettings{Enabled: true, Provider: domain.AIProviderGemini},
			wantNil:  true,
		},
		{
			name:      "gemini",
			settings:  &domain.EmbeddingSettings{Enabled: true, Provider: domain.AIProviderGemini, APIKey: "k"},
			wantModel: "gemini-embedding-001",
			wantDims:  768,
		},
		{
			name: "openai",
			settings: &domain.EmbeddingSettings{
				Enabled: true, Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-large",
			},
			wantModel: "text-embedding-3-large",
			wantDims:  3072,
		},
		{
			name:      "ollama",
			settings:  &domain.EmbeddingSettings{Enabled: true, Provider: domain.AIProviderOllama, Model: "all-minilm"},
			wantModel: "all-minilm",
			wantDims:  384,
		},
		{
			name:        "anthropic cannot embed",
			settings:    &domain.EmbeddingSettings{Enabled: true, Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantNil:     true,
			errContains: "does not support embeddings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := CreateEmbeddingProvider(ctx, tt.settings, limits)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, provider)
				return
			}
			require.NotNil(t, provider)
			assert.Equal(t, tt.wantModel, provider.ModelName())
			assert.Equal(t, tt.wantDims, provider.Dimensions())
		})
	}
}

func TestInitialise(t *testing.T) {
	ctx := context.Background()

	t.Run("analysis and embedding ready", func(t *testing.T) {
		server := newOllamaServer(t, http.StatusOK)
		settings := domain.DefaultAppSettings()
		settings.Analysis = domain.AnalysisSettings{Provider: domain.AIProviderOllama, BaseURL: server.URL}
		settings.Embedding = domain.EmbeddingSettings{
			Enabled: true, Provider: domain.AIProviderOllama, BaseURL: server.URL,
		}

		result, err := Initialise(ctx, &settings, nil)
		require.NoError(t, err)
		defer result.Close()
		assert.NotNil(t, result.Analysis)
		assert.NotNil(t, result.Embedding)
		assert.Empty(t, result.Warnings)
	})

	t.Run("unreachable embedding is a warning", func(t *testing.T) {
		up := newOllamaServer(t, http.StatusOK)
		down := newOllamaServer(t, http.StatusNotFound)
		settings := domain.DefaultAppSettings()
		settings.Analysis = domain.AnalysisSettings{Provider: domain.AIProviderOllama, BaseURL: up.URL}
		settings.Embedding = domain.EmbeddingSettings{
			Enabled: true, Provider: domain.AIProviderOllama, BaseURL: down.URL,
		}

		result, err := Initialise(ctx, &settings, nil)
		require.NoError(t, err)
		assert.Nil(t, result.Embedding)
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], domain.ErrEmbeddingUnavailable.Error())
	})

	t.Run("missing analysis key is fatal", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		_, err := Initialise(ctx, &settings, nil)
		assert.ErrorIs(t, err, domain.ErrAnalysisUnavailable)
	})

	t.Run("unreachable analysis is fatal", func(t *testing.T) {
		down := newOllamaServer(t, http.StatusNotFound)
		settings := domain.DefaultAppSettings()
		settings.Analysis = domain.AnalysisSettings{Provider: domain.AIProviderOllama, BaseURL: down.URL}

		_, err := Initialise(ctx, &settings, nil)
		assert.ErrorIs(t, err, domain.ErrAnalysisUnavailable)
		assert.Contains(t, err.Error(), "service unreachable")
	})
}
