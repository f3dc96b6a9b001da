// Package extractors turns files into plain text.
//
// A Registry dispatches by file extension to format extractors:
//
//   - plaintext: text, markdown, source code, JSON, CSV and HTML read as UTF-8
//   - pdf: per-page text extraction joined with newlines
//
// Extensions without an extractor yield empty text and no error, which the
// pipeline treats as nothing to process.
package extractors
