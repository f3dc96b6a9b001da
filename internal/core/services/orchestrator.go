package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// TruncationMarker is appended to text cut to a provider's budget.
const TruncationMarker = "\n\n[... text truncated ...]"

// AnalysisInput is one document submitted for analysis.
type AnalysisInput struct {
	Text       string
	Filename   string
	Extension  string
	SourceType domain.SourceType
}

// ProviderOrchestrator composes one analysis and one optional embedding provider.
// Analysis is required for every document; embedding is best effort.
type ProviderOrchestrator struct {
	analysis  driven.AnalysisProvider
	embedding driven.EmbeddingProvider
}

// NewProviderOrchestrator creates an orchestrator.
// The embedding provider is optional (can be nil).
func NewProviderOrchestrator(
	analysis driven.AnalysisProvider,
	embedding driven.EmbeddingProvider,
) *ProviderOrchestrator {
	return &ProviderOrchestrator{
		analysis:  analysis,
		embedding: embedding,
	}
}

// HasEmbedding returns true if an embedding provider is configured.
func (o *ProviderOrchestrator) HasEmbedding() bool {
	return o.embedding != nil
}

// EmbeddingModel returns the embedding model name, empty without a provider.
func (o *ProviderOrchestrator) EmbeddingModel() string {
	if o.embedding == nil {
		return ""
	}
	return o.embedding.ModelName()
}

// Analyze returns metadata and, if wanted and available, an embedding.
//
// An analysis failure is returned. A rate-limit condition is returned as an
// error matching domain.ErrRateLimited so the caller can defer the document.
// A rate-limited embedding call is swallowed and the vector is nil.
func (o *ProviderOrchestrator) Analyze(
	ctx context.Context, in AnalysisInput, wantEmbedding bool,
) (*domain.Metadata, []float32, error) {
	if o.analysis == nil {
		return nil, nil, domain.ErrAnalysisUnavailable
	}

	text := Truncate(in.Text, o.analysis.MaxInputChars())
	meta, err := o.analysis.Analyze(ctx, driven.AnalysisRequest{
		Text:       text,
		Filename:   in.Filename,
		Extension:  in.Extension,
		SourceType: in.SourceType,
	})
	if err != nil {
		return nil, nil, o.classify(o.analysis.Name(), "analyze", err)
	}
	if meta == nil {
		return nil, nil, &domain.ProviderError{
			Provider: o.analysis.Name(), Op: "analyze", Err: errors.New("empty response"),
		}
	}
	meta.Normalize()

	if !wantEmbedding || o.embedding == nil {
		return meta, nil, nil
	}

	vec, err := o.embedding.Embed(ctx, Truncate(in.Text, o.embedding.MaxInputChars()))
	switch {
	case domain.IsRateLimited(err):
		logger.Warn("Embedding skipped for %s: %v", in.Filename, err)
		return meta, nil, nil
	case err != nil:
		return nil, nil, o.classify(o.embedding.Name(), "embed", err)
	}
	return meta, vec, nil
}

// EmbeddingQuota reports the embedding provider's daily quota usage.
// ok is false when the provider keeps no local quota.
func (o *ProviderOrchestrator) EmbeddingQuota() (usage domain.QuotaUsage, ok bool) {
	reporter, ok := o.embedding.(driven.QuotaReporter)
	if !ok {
		return domain.QuotaUsage{}, false
	}
	return reporter.Usage(), true
}

// AnalyzeBatchEmbeddings embeds texts in provider-sized batches.
// The result is index-aligned with texts. On error the vectors of the
// batches completed so far are returned together with the error.
func (o *ProviderOrchestrator) AnalyzeBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if o.embedding == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	size := o.embedding.BatchSize()
	if size <= 0 {
		size = 1
	}
	budget := o.embedding.MaxInputChars()

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))

		batch := make([]string, 0, end-start)
		for _, t := range texts[start:end] {
			batch = append(batch, Truncate(t, budget))
		}

		vecs, err := o.embedding.EmbedBatch(ctx, batch)
		if err != nil {
			return out, o.classify(o.embedding.Name(), "embed batch", err)
		}
		if len(vecs) != len(batch) {
			return out, &domain.ProviderError{
				Provider: o.embedding.Name(),
				Op:       "embed batch",
				Err:      fmt.Errorf("got %d embeddings for %d texts", len(vecs), len(batch)),
			}
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// classify keeps the taxonomy closed: rate-limit errors and typed provider
// errors pass through, anything else becomes a ProviderError.
func (o *ProviderOrchestrator) classify(provider, op string, err error) error {
	if domain.IsRateLimited(err) || domain.IsProviderError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.ProviderError{Provider: provider, Op: op, Err: err}
}

// Truncate cuts text to at most maxChars runes and appends TruncationMarker.
// A budget <= 0 means unlimited.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}

	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i] + TruncationMarker
		}
		n++
	}
	return text
}
