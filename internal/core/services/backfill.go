package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driving"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// Ensure BackfillService implements the interface.
var _ driving.EmbeddingBackfill = (*BackfillService)(nil)

// BackfillService embeds stored documents that were ingested without an
// embedding, typically because the embedding provider was rate limited.
type BackfillService struct {
	store        driven.DocumentStore
	orchestrator *ProviderOrchestrator
	threshold    float64
}

// NewBackfillService creates a backfill service.
func NewBackfillService(
	store driven.DocumentStore, orchestrator *ProviderOrchestrator, threshold float64,
) *BackfillService {
	return &BackfillService{store: store, orchestrator: orchestrator, threshold: threshold}
}

// Backfill embeds up to limit documents (all if limit <= 0) in provider
// batches. Each new embedding is compared against older documents and a
// duplicate relation is recorded when it reaches the threshold.
//
// A rate-limit error stops the backfill; the result still counts the
// documents embedded before it.
func (s *BackfillService) Backfill(ctx context.Context, limit int) (*driving.BackfillResult, error) {
	if !s.orchestrator.HasEmbedding() {
		return nil, domain.ErrEmbeddingUnavailable
	}

	docs, err := s.store.DocumentsWithoutEmbedding(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing documents without embedding: %w", err)
	}
	result := &driving.BackfillResult{}
	if len(docs) == 0 {
		return result, nil
	}

	existing, err := s.store.AllEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}
	detector := NewDuplicateDetector(s.threshold, existing)

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	logger.Info("Backfilling embeddings for %d documents", len(docs))
	vecs, embedErr := s.orchestrator.AnalyzeBatchEmbeddings(ctx, texts)

	for i, vec := range vecs {
		doc := docs[i]
		if len(vec) == 0 {
			continue
		}
		if err := s.store.SaveEmbedding(ctx, &domain.Embedding{
			DocumentID: doc.ID,
			Vector:     vec,
			Dimensions: len(vec),
			Model:      s.orchestrator.EmbeddingModel(),
			CreatedAt:  time.Now(),
		}); err != nil {
			return s.finish(ctx, result, fmt.Errorf("saving embedding for %d: %w", doc.ID, err))
		}
		result.Embedded++

		if dup := detector.CheckOlder(vec, doc.ID); dup != nil {
			dup.DocumentID = doc.ID
			if err := s.store.MarkDuplicate(ctx, *dup); err != nil {
				return s.finish(ctx, result, fmt.Errorf("marking duplicate %d: %w", doc.ID, err))
			}
			result.Duplicates++
			logger.Debug("Document %d is a duplicate of %d (%.3f)", doc.ID, dup.DuplicateOfID, dup.Similarity)
		}
		detector.Add(doc.ID, vec)
	}

	return s.finish(ctx, result, embedErr)
}

// finish fills Remaining and returns the result with err.
func (s *BackfillService) finish(
	ctx context.Context, result *driving.BackfillResult, err error,
) (*driving.BackfillResult, error) {
	remaining, listErr := s.store.DocumentsWithoutEmbedding(ctx, 0)
	if listErr == nil {
		result.Remaining = len(remaining)
	}
	if err != nil {
		logger.Warn("Backfill stopped after %d documents: %v", result.Embedded, err)
		return result, err
	}
	return result, nil
}
