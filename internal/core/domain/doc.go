// Package domain defines the core business entities for the archaeologist.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested file with its extracted text
//   - Metadata: Structured analysis of a document
//   - Embedding: Semantic vector of a document
//   - Duplicate: Near-duplicate relation between two documents
//   - Event / RunSummary: Pipeline progress and results
//
// It also defines the error taxonomy shared by every layer.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
