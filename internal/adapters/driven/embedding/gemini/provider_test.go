package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/ratelimit"
)

type wireRequest struct {
	Model   string `json:"model"`
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	TaskType             string `json:"taskType"`
	OutputDimensionality int    `json:"outputDimensionality"`
}

func newTestProvider(t *testing.T, limiter *ratelimit.Limiter, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewProvider(context.Background(), Config{APIKey: "g-key", BaseURL: server.URL, Limiter: limiter})
	require.NoError(t, err)
	return p
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{})
	require.Error(t, err)

	p, err := NewProvider(context.Background(), Config{APIKey: "k", Model: "models/text-embedding-004"})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-004", p.ModelName())
	assert.Equal(t, 768, p.Dimensions())
	assert.Equal(t, 100, p.BatchSize())
	assert.Equal(t, 30_000, p.MaxInputChars())
	assert.Equal(t, "gemini", p.Name())
}

func TestProvider_Embed(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 10, TokensPerDay: 100, Provider: "gemini"})
	p := newTestProvider(t, limiter, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-embedding-001:embedContent"), r.URL.Path)
		assert.Equal(t, "g-key", r.URL.Query().Get("key"))

		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, TaskType, req.TaskType)
		assert.Equal(t, 768, req.OutputDimensionality)
		require.Len(t, req.Content.Parts, 1)
		assert.Equal(t, "three little words", req.Content.Parts[0].Text)

		_, _ = w.Write([]byte(`{"embedding":{"values":[0.5,0.25]}}`))
	})

	vector, err := p.Embed(context.Background(), "three little words")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vector)

	usage := p.Usage()
	assert.Equal(t, 1, usage.RequestsThisMinute)
	assert.Equal(t, 3, usage.TokensToday)
	assert.Equal(t, "gemini", usage.Provider)
	assert.Equal(t, 97, usage.RemainingTokens())
}

func TestProvider_EmbedBatch(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 10, TokensPerDay: 100, Provider: "gemini"})
	p := newTestProvider(t, limiter, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":batchEmbedContents"), r.URL.Path)

		var req struct {
			Requests []wireRequest `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 2)
		assert.Equal(t, "models/gemini-embedding-001", req.Requests[0].Model)

		_, _ = w.Write([]byte(`{"embeddings":[{"values":[1,0]},{"values":[0,1]}]}`))
	})

	vectors, err := p.EmbedBatch(context.Background(), []string{"one two", "three"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
	assert.Equal(t, 1, p.Usage().RequestsThisMinute)
	assert.Equal(t, 3, p.Usage().TokensToday)
}

func TestProvider_QuotaExceededSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	limiter := ratelimit.New(ratelimit.Config{TokensPerDay: 2, Provider: "gemini"})
	p := newTestProvider(t, limiter, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"embedding":{"values":[1]}}`))
	})

	_, err := p.Embed(context.Background(), "one two three")
	require.Error(t, err)
	assert.True(t, domain.IsQuotaExceeded(err))
	assert.True(t, domain.IsRateLimited(err))
	assert.Zero(t, calls.Load())
}

func TestProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		rateLimit bool
	}{
		{"429", http.StatusTooManyRequests, `{"error":{"code":429,"message":"slow","status":"RESOURCE_EXHAUSTED"}}`, true},
		{"quota message", http.StatusForbidden, `{"error":{"code":403,"message":"Quota exceeded for metric"}}`, true},
		{"bad key", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid"}}`, false},
		{"server", http.StatusInternalServerError, `{"error":{"code":500,"message":"internal"}}`, false},
		{"count mismatch", http.StatusOK, `{"embeddings":[]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, nil, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := p.EmbedBatch(context.Background(), []string{"a"})
			require.Error(t, err)
			assert.Equal(t, tt.rateLimit, domain.IsRateLimited(err))
			if !tt.rateLimit {
				assert.True(t, domain.IsProviderError(err))
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Run("retry after header", func(t *testing.T) {
		gerr := &googleapi.Error{Code: 429, Header: http.Header{"Retry-After": []string{"7"}}}
		var rle *domain.RateLimitError
		require.ErrorAs(t, classify("embed", gerr), &rle)
		assert.Equal(t, 7*time.Second, rle.RetryAfter)
	})

	t.Run("context passes through", func(t *testing.T) {
		assert.ErrorIs(t, classify("embed", context.Canceled), context.Canceled)
	})

	t.Run("transport error", func(t *testing.T) {
		var pe *domain.ProviderError
		require.ErrorAs(t, classify("embed", errors.New("dial tcp")), &pe)
		assert.Equal(t, 0, pe.StatusCode)
		assert.Equal(t, "embed", pe.Op)
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, classify("embed", nil))
	})
}

func TestProvider_Ping(t *testing.T) {
	p := newTestProvider(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-embedding-001"), r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"models/gemini-embedding-001"}`))
	})
	assert.NoError(t, p.Ping(context.Background()))
	assert.Zero(t, p.Usage().RequestsThisMinute)
}
