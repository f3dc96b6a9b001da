package driven

import "context"

// TextExtractor converts a file into plain text.
//
// Unsupported extensions produce empty text and no error. A format that is
// supported but cannot be read produces a *domain.ExtractionError.
type TextExtractor interface {
	// Extract returns the text of the file at path.
	Extract(ctx context.Context, path string) (string, error)
}

// FormatExtractor handles one family of file extensions.
// A TextExtractor dispatches to registered FormatExtractors.
type FormatExtractor interface {
	// Extensions returns the lower-case extensions (with dot) this extractor reads.
	Extensions() []string

	// Extract returns the text of the file at path.
	Extract(ctx context.Context, path string) (string, error)
}
