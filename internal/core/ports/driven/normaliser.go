package driven

import (
	"context"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// Normaliser extracts plain text from raw file bytes.
// Each normaliser handles specific MIME types (e.g., PDF, DOCX).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts text. Failures wrap domain.ErrExtractionFailed.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of text extraction.
type NormaliseResult struct {
	// Content is the extracted plain text.
	Content string

	// Title is a human-readable title when the format carries one.
	Title string
}

// NormaliserRegistry selects the appropriate normaliser for a document.
type NormaliserRegistry interface {
	// Normalise extracts text using the best matching normaliser.
	// Returns domain.ErrUnsupportedFormat if none matches.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string

	// Supports reports whether a MIME type can be normalised.
	Supports(mimeType string) bool
}
