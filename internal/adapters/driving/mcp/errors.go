// Package mcp provides an MCP (Model Context Protocol) server adapter for docuquery.
// It lets AI assistants ask grounded questions of the indexed corpus and
// manage the documents in it.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
