package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockAnalysis implements driven.AnalysisProvider.
type mockAnalysis struct {
	mu       sync.Mutex
	maxChars int
	calls    []driven.AnalysisRequest

	// errFor returns an error for a filename, nil to succeed.
	errFor func(filename string) error
}

func (m *mockAnalysis) Analyze(_ context.Context, req driven.AnalysisRequest) (*domain.Metadata, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.errFor != nil {
		if err := m.errFor(req.Filename); err != nil {
			return nil, err
		}
	}
	return &domain.Metadata{
		Language:    " EN ",
		Topic:       "topic of " + req.Filename,
		Keywords:    []string{"one", "", "two"},
		ContentType: "notes",
		Summary:     "summary",
		Confidence:  1.5,
	}, nil
}

func (m *mockAnalysis) Name() string { return "mock-analysis" }
func (m *mockAnalysis) ModelName() string { return "mock-model" }
func (m *mockAnalysis) MaxInputChars() int { return m.maxChars }
func (m *mockAnalysis) Ping(context.Context) error { return nil }
func (m *mockAnalysis) Close() error { return nil }

func (m *mockAnalysis) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockEmbedding implements driven.EmbeddingProvider.
// Vectors are looked up by a substring of the text, falling back to def.
type mockEmbedding struct {
	mu        sync.Mutex
	vectors   map[string][]float32
	def       []float32
	err       error
	batchSize int
	maxChars  int
	batches   [][]string
	singles   []string
}

func (m *mockEmbedding) vectorFor(text string) []float32 {
	for key, vec := range m.vectors {
		if strings.Contains(text, key) {
			return vec
		}
	}
	return m.def
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.singles = append(m.singles, text)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, texts)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vectorFor(t)
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int { return 3 }
func (m *mockEmbedding) ModelName() string { return "mock-embed" }
func (m *mockEmbedding) Name() string { return "mock-embedding" }
func (m *mockEmbedding) MaxInputChars() int { return m.maxChars }
func (m *mockEmbedding) Ping(context.Context) error { return nil }
func (m *mockEmbedding) Close() error { return nil }

func (m *mockEmbedding) BatchSize() int {
	if m.batchSize == 0 {
		return 100
	}
	return m.batchSize
}

// mockScanner implements driven.FileScanner over a fixed path list.
type mockScanner struct {
	paths []string
	err   error
}

func (m *mockScanner) Scan(ctx context.Context, _ string) (<-chan string, <-chan error) {
	paths := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		if m.err != nil {
			errs <- m.err
			return
		}
		for _, p := range m.paths {
			select {
			case <-ctx.Done():
				return
			case paths <- p:
			}
		}
	}()

	return paths, errs
}

// mockExtractor implements driven.TextExtractor over a path to text map.
type mockExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (m *mockExtractor) Extract(_ context.Context, path string) (string, error) {
	if err, ok := m.errs[path]; ok {
		return "", err
	}
	return m.texts[path], nil
}

func (m *mockExtractor) Supports(ext string) bool {
	return ext != ".bin"
}

// mockValidator implements driven.AIConfigValidator.
type mockValidator struct {
	analysisErr  error
	embeddingErr error
}

func (m *mockValidator) ValidateAnalysis(*domain.AnalysisSettings) error { return m.analysisErr }
func (m *mockValidator) ValidateEmbedding(*domain.EmbeddingSettings) error { return m.embeddingErr }

var errBoom = errors.New("boom")

// drain returns every event buffered in a closed channel.
func drain(events chan domain.Event) []domain.Event {
	close(events)
	var out []domain.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}
