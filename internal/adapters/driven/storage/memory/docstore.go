package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Search is a case-insensitive match of every query word against the
// filename, filepath and text, ranked by insertion order.
type DocumentStore struct {
	mu         sync.RWMutex
	nextID     int64
	documents  map[int64]domain.Document
	metadata   map[int64]domain.Metadata
	embeddings map[int64]domain.Embedding
	duplicates []domain.Duplicate

	// FailInsert, when set, is returned (wrapped) by every Insert.
	FailInsert error
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:  make(map[int64]domain.Document),
		metadata:   make(map[int64]domain.Metadata),
		embeddings: make(map[int64]domain.Embedding),
	}
}

// Exists reports whether a document with this filepath is stored.
func (s *DocumentStore) Exists(_ context.Context, path string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.idByPath(path)
	return ok, nil
}

// FindByHash returns the lowest id with this content hash.
func (s *DocumentStore) FindByHash(_ context.Context, contentHash string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.sortedIDs() {
		if s.documents[id].ContentHash == contentHash {
			return id, nil
		}
	}
	return 0, notFound("finding document by hash")
}

// FindByPath returns the id of the document stored at path.
func (s *DocumentStore) FindByPath(_ context.Context, path string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.idByPath(path); ok {
		return id, nil
	}
	return 0, notFound("finding document by path")
}

// Insert stores the record. Validation happens before any write so a
// failing record leaves the store unchanged.
func (s *DocumentStore) Insert(_ context.Context, record *domain.IngestRecord) (int64, error) {
	const op = "inserting document"

	if record == nil || record.Document.Filepath == "" {
		return 0, &domain.StorageError{Op: op, Err: domain.ErrInvalidInput}
	}
	if s.FailInsert != nil {
		return 0, &domain.StorageError{Op: op, Err: s.FailInsert}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.idByPath(record.Document.Filepath)
	if exists && !record.Replace {
		return 0, &domain.StorageError{Op: op,
			Err: fmt.Errorf("filepath %s already stored: %w", record.Document.Filepath, domain.ErrInvalidInput)}
	}
	if emb := record.Embedding; emb != nil && emb.Dimensions != 0 && emb.Dimensions != len(emb.Vector) {
		return 0, &domain.StorageError{Op: op, Err: domain.ErrInvalidInput}
	}
	for _, dup := range record.Duplicates {
		if _, ok := s.documents[dup.DuplicateOfID]; !ok || (exists && dup.DuplicateOfID == existing) {
			return 0, &domain.StorageError{Op: op,
				Err: fmt.Errorf("duplicate of %d: %w", dup.DuplicateOfID, domain.ErrNotFound)}
		}
		if dup.Similarity <= 0 {
			return 0, &domain.StorageError{Op: op, Err: domain.ErrInvalidInput}
		}
	}

	var id int64
	if exists {
		id = existing
		s.clearReplaced(id)
	} else {
		s.nextID++
		id = s.nextID
	}

	doc := record.Document
	doc.ID = id
	if doc.ProcessedAt.IsZero() {
		doc.ProcessedAt = time.Now()
	}
	s.documents[id] = doc

	meta := record.Metadata
	meta.Keywords = append([]string{}, meta.Keywords...)
	s.metadata[id] = meta

	if record.Embedding != nil && len(record.Embedding.Vector) > 0 {
		emb := *record.Embedding
		emb.DocumentID = id
		emb.Dimensions = len(emb.Vector)
		emb.Vector = append([]float32(nil), emb.Vector...)
		s.embeddings[id] = emb
	}

	for _, dup := range record.Duplicates {
		dup.DocumentID = id
		dup.Similarity = math.Min(dup.Similarity, 1)
		if dup.DetectedAt.IsZero() {
			dup.DetectedAt = time.Now()
		}
		s.duplicates = append(s.duplicates, dup)
	}

	return id, nil
}

// Get retrieves a document with its metadata and duplicate relations.
func (s *DocumentStore) Get(_ context.Context, id int64) (*domain.DocumentDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, notFound("getting document")
	}

	details := &domain.DocumentDetails{Document: doc}
	if meta, ok := s.metadata[id]; ok {
		m := meta
		details.Metadata = &m
	}
	if emb, ok := s.embeddings[id]; ok {
		details.EmbeddingModel = emb.Model
		details.EmbeddingDims = emb.Dimensions
	}
	for _, dup := range s.duplicates {
		if dup.DocumentID == id {
			details.DuplicateOf = append(details.DuplicateOf, dup)
		}
	}
	sort.SliceStable(details.DuplicateOf, func(i, j int) bool {
		return details.DuplicateOf[i].Similarity > details.DuplicateOf[j].Similarity
	})
	return details, nil
}

// List returns documents ordered by id.
func (s *DocumentStore) List(_ context.Context, offset, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := page(s.sortedIDs(), offset, limit)
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, s.documents[id])
	}
	return docs, nil
}

// Delete removes a document and every relation referencing it.
func (s *DocumentStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return notFound("deleting document")
	}
	s.remove(id)
	return nil
}

// AllEmbeddings returns every stored vector in document id order.
func (s *DocumentStore) AllEmbeddings(_ context.Context) ([]domain.EmbeddingRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]domain.EmbeddingRef, 0, len(s.embeddings))
	for _, id := range s.sortedIDs() {
		if emb, ok := s.embeddings[id]; ok {
			refs = append(refs, domain.EmbeddingRef{DocumentID: id, Vector: emb.Vector})
		}
	}
	return refs, nil
}

// SaveEmbedding stores or replaces the embedding of an existing document.
func (s *DocumentStore) SaveEmbedding(_ context.Context, embedding *domain.Embedding) error {
	const op = "saving embedding"
	if embedding == nil || len(embedding.Vector) == 0 {
		return &domain.StorageError{Op: op, Err: domain.ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[embedding.DocumentID]; !ok {
		return notFound(op)
	}
	emb := *embedding
	emb.Dimensions = len(emb.Vector)
	s.embeddings[emb.DocumentID] = emb
	return nil
}

// DocumentsWithoutEmbedding returns documents lacking an embedding, by id.
func (s *DocumentStore) DocumentsWithoutEmbedding(_ context.Context, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []domain.Document //nolint:prealloc // size unknown until filtered
	for _, id := range s.sortedIDs() {
		if _, ok := s.embeddings[id]; ok {
			continue
		}
		docs = append(docs, s.documents[id])
		if limit > 0 && len(docs) == limit {
			break
		}
	}
	return docs, nil
}

// MarkDuplicate records or updates a near-duplicate relation.
func (s *DocumentStore) MarkDuplicate(_ context.Context, dup domain.Duplicate) error {
	const op = "marking duplicate"
	if dup.DocumentID == dup.DuplicateOfID || dup.Similarity <= 0 {
		return &domain.StorageError{Op: op, Err: domain.ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, okDoc := s.documents[dup.DocumentID]
	_, okOrig := s.documents[dup.DuplicateOfID]
	if !okDoc || !okOrig {
		return notFound(op)
	}

	dup.Similarity = math.Min(dup.Similarity, 1)
	if dup.DetectedAt.IsZero() {
		dup.DetectedAt = time.Now()
	}
	for i, d := range s.duplicates {
		if d.DocumentID == dup.DocumentID && d.DuplicateOfID == dup.DuplicateOfID {
			s.duplicates[i] = dup
			return nil
		}
	}
	s.duplicates = append(s.duplicates, dup)
	return nil
}

// Duplicates returns recorded relations, newest first.
func (s *DocumentStore) Duplicates(_ context.Context, limit int) ([]domain.Duplicate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dups := make([]domain.Duplicate, len(s.duplicates))
	copy(dups, s.duplicates)
	// Insertion order breaks ties, newest first.
	for i, j := 0, len(dups)-1; i < j; i, j = i+1, j-1 {
		dups[i], dups[j] = dups[j], dups[i]
	}
	sort.SliceStable(dups, func(i, j int) bool {
		return dups[i].DetectedAt.After(dups[j].DetectedAt)
	})
	if limit > 0 && len(dups) > limit {
		dups = dups[:limit]
	}
	return dups, nil
}

// Search matches every query word, ignoring quotes and FTS operators.
func (s *DocumentStore) Search(_ context.Context, query string, limit int) ([]domain.SearchResult, error) {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.SearchResult //nolint:prealloc // size unknown until filtered
	for _, id := range s.sortedIDs() {
		doc := s.documents[id]
		haystack := strings.ToLower(doc.Filename + " " + doc.Filepath + " " + doc.Content)
		if !containsAll(haystack, terms) {
			continue
		}

		r := domain.SearchResult{Document: doc, Rank: float64(len(results)), Snippet: snippet(doc.Content, terms[0])}
		if meta, ok := s.metadata[id]; ok {
			m := meta
			r.Metadata = &m
		}
		results = append(results, r)
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// Statistics aggregates counts over the store.
func (s *DocumentStore) Statistics(_ context.Context) (*domain.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.Statistics{
		TotalDocuments:  len(s.documents),
		TotalEmbeddings: len(s.embeddings),
		TotalDuplicates: len(s.duplicates),
		ByLanguage:      make(map[string]int),
		BySourceType:    make(map[string]int),
		ByExtension:     make(map[string]int),
	}
	for id, doc := range s.documents {
		stats.BySourceType[string(doc.SourceType)]++
		stats.ByExtension[doc.Extension]++
		if meta, ok := s.metadata[id]; ok {
			stats.ByLanguage[meta.Language]++
		}
	}
	return stats, nil
}

// ==================== Helpers ====================

// idByPath must be called with the lock held.
func (s *DocumentStore) idByPath(path string) (int64, bool) {
	for id, doc := range s.documents {
		if doc.Filepath == path {
			return id, true
		}
	}
	return 0, false
}

// remove must be called with the write lock held.
func (s *DocumentStore) remove(id int64) {
	delete(s.documents, id)
	delete(s.metadata, id)
	delete(s.embeddings, id)

	kept := s.duplicates[:0]
	for _, dup := range s.duplicates {
		if dup.DocumentID != id && dup.DuplicateOfID != id {
			kept = append(kept, dup)
		}
	}
	s.duplicates = kept
}

// clearReplaced drops the metadata, embedding and outgoing relations of a
// document about to be rewritten in place.
func (s *DocumentStore) clearReplaced(id int64) {
	delete(s.metadata, id)
	delete(s.embeddings, id)

	kept := s.duplicates[:0]
	for _, dup := range s.duplicates {
		if dup.DocumentID != id {
			kept = append(kept, dup)
		}
	}
	s.duplicates = kept
}

func (s *DocumentStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func page(ids []int64, offset, limit int) []int64 {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ids) {
		return nil
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

func notFound(op string) error {
	return &domain.StorageError{Op: op, Err: domain.ErrNotFound}
}

func searchTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(strings.ToLower(query)) {
		f = strings.Trim(f, `"*()`)
		switch f {
		case "", "and", "or", "not":
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func containsAll(haystack string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(haystack, t) {
			return false
		}
	}
	return true
}

func snippet(content, term string) string {
	idx := strings.Index(strings.ToLower(content), term)
	if idx < 0 || idx+len(term) > len(content) {
		return ""
	}
	start := max(0, idx-30)
	end := min(len(content), idx+len(term)+30)
	return content[start:idx] + "[" + content[idx:idx+len(term)] + "]" + content[idx+len(term):end]
}
