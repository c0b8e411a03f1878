package mcp

import (
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions from the corpus.
	Query driving.QueryService

	// Ingest adds text to the corpus. Optional; without it the
	// ingest_text tool is not registered.
	Ingest driving.IngestService

	// Document lists, inspects and deletes documents. Optional; without it
	// the document tools and resources are not registered.
	Document driving.DocumentService

	// Settings supplies the default top_k for queries. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
