// Package plaintext reads text-like files as UTF-8.
package plaintext

import (
	"context"
	"os"
	"strings"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.FormatExtractor = (*Extractor)(nil)

// Extractor reads a file and replaces invalid UTF-8 with U+FFFD.
type Extractor struct{}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns every supported extension except PDF.
func (e *Extractor) Extensions() []string {
	var exts []string
	for _, ext := range domain.SupportedExtensions() {
		if domain.SourceTypeForExtension(ext) != domain.SourceTypePDF {
			exts = append(exts, ext)
		}
	}
	return exts
}

// Extract never fails on encoding; only I/O errors are returned.
func (e *Extractor) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &domain.ExtractionError{Path: path, Err: err}
	}
	text := string(data)
	text = strings.TrimPrefix(text, "\uFEFF")
	return strings.ToValidUTF8(text, "\uFFFD"), nil
}
