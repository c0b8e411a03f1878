package driving

import (
	"context"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns documents that have not been deleted, most recent first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID, including deleted documents.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// GetContent returns the concatenated text of the document's chunks
	// with overlaps removed.
	GetContent(ctx context.Context, documentID string) (string, error)

	// Delete erases the document's chunks from the registry, tombstones
	// their vectors and returns the number of chunks removed.
	Delete(ctx context.Context, documentID string) (int, error)

	// Stats reports corpus and index health.
	Stats(ctx context.Context) (*domain.IndexStats, error)

	// Compact drops tombstoned vectors and returns how many were removed.
	Compact(ctx context.Context) (int, error)
}
