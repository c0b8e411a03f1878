package driven

import (
	"context"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// DocumentStore persists document metadata and lifecycle status.
// Backed by SQLite for durable storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents, most recently created first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// ChunkRegistry maps chunk IDs to chunk text, owning document and position.
// It holds no search logic. Deletion is authoritative: erased chunks are
// unresolvable even while stale vectors remain in the VectorIndex.
type ChunkRegistry interface {
	// PutChunks stores or replaces chunks.
	PutChunks(ctx context.Context, chunks ...domain.Chunk) error

	// GetChunk retrieves a chunk by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks returns a document's chunks in position order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteByDocument erases every chunk of a document and returns the count.
	DeleteByDocument(ctx context.Context, documentID string) (int, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}
