// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The ingestion Pipeline, the ProviderOrchestrator and the
// DuplicateDetector live here, next to the read-side Search, Document
// and Settings services used by the CLI and the MCP server.
package services
