package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists, inspects and deletes ingested documents and
// maintains the vector index.
type DocumentService struct {
	docStore driven.DocumentStore
	registry driven.ChunkRegistry
	index    driven.VectorIndex
	locks    *DocumentLocks
	now      func() time.Time
}

// NewDocumentService creates a new document service. locks must be the
// set shared with the IngestService; nil creates a private one.
func NewDocumentService(
	docStore driven.DocumentStore,
	registry driven.ChunkRegistry,
	index driven.VectorIndex,
	locks *DocumentLocks,
) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		registry: registry,
		index:    index,
		locks:    orNewLocks(locks),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns all documents that have not been deleted, most recent first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	live := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Status != domain.StatusDeleted {
			live = append(live, doc)
		}
	}
	return live, nil
}

// Get retrieves a document by ID, including deleted ones.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// GetContent reassembles the document text from its chunks, dropping
// the overlap each chunk shares with its predecessor.
func (s *DocumentService) GetContent(ctx context.Context, documentID string) (string, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.Status == domain.StatusDeleted {
		return "", fmt.Errorf("%w: document %s was deleted", domain.ErrNotFound, documentID)
	}

	chunks, err := s.registry.GetChunks(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("get chunks: %w", err)
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].Position < chunks[j].Position
	})

	var builder strings.Builder
	covered := 0
	for _, chunk := range chunks {
		runes := []rune(chunk.Content)
		skip := covered - chunk.Start
		if skip < 0 {
			skip = 0
		}
		if skip < len(runes) {
			builder.WriteString(string(runes[skip:]))
		}
		if chunk.End > covered {
			covered = chunk.End
		}
	}

	return builder.String(), nil
}

// Delete erases a document's chunks from the registry and tombstones its
// vectors. Unknown or already deleted documents return ErrNotFound and a
// document that is being ingested returns ErrConflict.
func (s *DocumentService) Delete(ctx context.Context, documentID string) (int, error) {
	if !s.locks.tryLock(documentID) {
		return 0, fmt.Errorf("%w: document %s is being ingested", domain.ErrConflict, documentID)
	}
	defer s.locks.unlock(documentID)

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if doc.Status == domain.StatusDeleted {
		return 0, fmt.Errorf("%w: document %s already deleted", domain.ErrNotFound, documentID)
	}

	n, err := removeDocument(ctx, s.docStore, s.registry, s.index, doc, s.now())
	if err != nil {
		return 0, err
	}
	checkpoint(ctx, s.index)
	return n, nil
}

// Stats reports document counts by status and vector index population.
func (s *DocumentService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	stats := &domain.IndexStats{Documents: make(map[domain.DocumentStatus]int)}
	for _, doc := range docs {
		stats.Documents[doc.Status]++
	}

	chunks, err := s.registry.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	stats.Chunks = chunks

	idx := s.index.Stats()
	stats.LiveVectors = idx.Live
	stats.TombstonedVectors = idx.Tombstoned
	stats.Dimensions = idx.Dimensions

	return stats, nil
}

// Compact physically drops tombstoned vectors and persists the index.
// Returns the number of entries removed.
func (s *DocumentService) Compact(ctx context.Context) (int, error) {
	removed, err := s.index.Compact(ctx)
	if err != nil {
		return 0, fmt.Errorf("compact index: %w", err)
	}
	checkpoint(ctx, s.index)
	return removed, nil
}
