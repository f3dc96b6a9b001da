package extractors

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/extractors/pdf"
	"github.com/custodia-labs/archaeologist/internal/extractors/plaintext"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.TextExtractor = (*Registry)(nil)

// Registry maps extensions to format extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.FormatExtractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]driven.FormatExtractor)}
}

// Default returns a registry with the plaintext and pdf extractors.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(pdf.New())
	return r
}

// Register adds an extractor for each of its extensions, replacing any
// previous registration.
func (r *Registry) Register(e driven.FormatExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.Extensions() {
		r.extractors[domain.NormalizeExtension(ext)] = e
	}
}

// Supports reports whether an extractor is registered for ext.
func (r *Registry) Supports(ext string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extractors[domain.NormalizeExtension(ext)]
	return ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract dispatches on the extension of path.
func (r *Registry) Extract(ctx context.Context, path string) (string, error) {
	ext := domain.ExtensionOf(path)

	r.mu.RLock()
	e, ok := r.extractors[ext]
	r.mu.RUnlock()

	if !ok {
		logger.Debug("No extractor for %q: %s", ext, path)
		return "", nil
	}
	return e.Extract(ctx, path)
}
