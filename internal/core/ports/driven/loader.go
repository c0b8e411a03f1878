package driven

import (
	"context"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// DocumentLoader reads a document from its location into raw bytes with
// a detected MIME type. The filesystem connector implements it.
type DocumentLoader interface {
	// Load returns the raw document at uri.
	Load(ctx context.Context, uri string) (*domain.RawDocument, error)
}
