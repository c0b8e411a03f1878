// Package tui provides an interactive terminal user interface for docuquery.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Document lists, shows and deletes ingested documents. Required.
	Document driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(query driving.QueryService, document driving.DocumentService) *Ports {
	return &Ports{
		Query:    query,
		Document: document,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
