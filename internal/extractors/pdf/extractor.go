// Package pdf extracts text from PDF files with github.com/ledongthuc/pdf.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/ports/driven"
	"github.com/custodia-labs/archaeologist/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.FormatExtractor = (*Extractor)(nil)

// Extractor reads PDF text page by page.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the PDF extension.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns the text of all pages joined with a newline.
// Any failure, including a malformed file, is a *domain.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &domain.ExtractionError{Path: path, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", &domain.ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	numPages := r.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		pageText, err := p.GetPlainText(nil)
		if err != nil {
			return "", &domain.ExtractionError{Path: path, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		pages = append(pages, pageText)
	}

	logger.Debug("Extracted %d pages from %s", len(pages), path)
	return strings.Join(pages, "\n"), nil
}
