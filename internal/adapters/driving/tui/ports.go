// Package tui provides the terminal interfaces of archaeologist: the live
// ingestion progress view and the interactive archive browser.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/archaeologist/internal/core/ports/driving"
)

// Ports aggregates the driving ports the browser requires.
type Ports struct {
	// Search provides full-text search.
	Search driving.SearchService

	// Document loads a selected document with its metadata.
	Document driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(search driving.SearchService, document driving.DocumentService) *Ports {
	return &Ports{
		Search:   search,
		Document: document,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
