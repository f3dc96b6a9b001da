package services

import (
	"math"
	"sync"
	"time"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// DefaultSimilarityThreshold is the score at or above which two documents
// are near-duplicates.
const DefaultSimilarityThreshold = domain.DefaultSimilarityThreshold

// CosineSimilarity returns dot(a,b) / (|a|*|b|).
// Empty vectors, vectors of different length and zero-norm vectors give 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MostSimilar returns the candidate with the highest cosine similarity to vec.
// The first candidate wins an exact tie. Only positive scores count, so an
// empty set, or one with no positively similar vector, returns nil and 0.
func MostSimilar(vec []float32, candidates []domain.EmbeddingRef) (*domain.EmbeddingRef, float64) {
	var best *domain.EmbeddingRef
	bestScore := 0.0

	for i := range candidates {
		score := CosineSimilarity(vec, candidates[i].Vector)
		if score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	return best, bestScore
}

// DuplicateDetector holds the comparison set for one run.
// Every embedding stored during the run is added so later documents are
// compared against everything stored so far. The scan is O(n) per document.
type DuplicateDetector struct {
	threshold float64

	mu         sync.Mutex
	candidates []domain.EmbeddingRef
}

// NewDuplicateDetector creates a detector seeded with existing embeddings.
// A threshold <= 0 uses DefaultSimilarityThreshold.
func NewDuplicateDetector(threshold float64, existing []domain.EmbeddingRef) *DuplicateDetector {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	candidates := make([]domain.EmbeddingRef, len(existing))
	copy(candidates, existing)
	return &DuplicateDetector{threshold: threshold, candidates: candidates}
}

// CheckExcluding compares vec against the set, ignoring the candidate with
// id self, and returns a relation pointing at the closest match, or nil if
// nothing reaches the threshold. DocumentID of the result is left for the
// store to fill in. A self of 0 excludes nothing.
func (d *DuplicateDetector) CheckExcluding(vec []float32, self int64) *domain.Duplicate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.check(vec, func(id int64) bool { return id != self })
}

// CheckOlder is CheckExcluding restricted to documents with an id below id, which
// keeps relations pointing from newer to older documents.
func (d *DuplicateDetector) CheckOlder(vec []float32, id int64) *domain.Duplicate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.check(vec, func(other int64) bool { return other < id })
}

// Add appends a stored embedding to the set.
func (d *DuplicateDetector) Add(id int64, vec []float32) {
	if len(vec) == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.candidates = append(d.candidates, domain.EmbeddingRef{DocumentID: id, Vector: vec})
}

// Remove drops a document from the set, for example when it is replaced.
func (d *DuplicateDetector) Remove(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := d.candidates[:0]
	for _, c := range d.candidates {
		if c.DocumentID != id {
			kept = append(kept, c)
		}
	}
	d.candidates = kept
}

func (d *DuplicateDetector) check(vec []float32, keep func(id int64) bool) *domain.Duplicate {
	candidates := d.candidates
	if keep != nil {
		candidates = make([]domain.EmbeddingRef, 0, len(d.candidates))
		for _, c := range d.candidates {
			if keep(c.DocumentID) {
				candidates = append(candidates, c)
			}
		}
	}

	best, score := MostSimilar(vec, candidates)
	if best == nil || score < d.threshold {
		return nil
	}
	return &domain.Duplicate{
		DuplicateOfID: best.DocumentID,
		Similarity:    score,
		DetectedAt:    time.Now(),
	}
}
