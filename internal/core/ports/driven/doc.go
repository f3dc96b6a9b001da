// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - FileScanner: Enumerates candidate files under a root directory
//   - TextExtractor: Converts a file into plain text
//   - AnalysisProvider: Extracts structured metadata from text
//   - DocumentStore: Document, metadata, embedding and duplicate persistence
//   - FailureLog: Persisted record of per-document failures
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingProvider: Generates vector embeddings. Without it, near-duplicate detection is skipped.
//   - PromptStore: User-customisable prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, scanner, or extractor package
package driven
