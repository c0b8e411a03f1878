package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interfaces.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.ChunkRegistry = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory implementation of driven.DocumentStore
// and driven.ChunkRegistry.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]domain.Chunk
	byDoc     map[string]map[string]struct{}
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]domain.Chunk),
		byDoc:     make(map[string]map[string]struct{}),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *doc
	stored.ChunkIDs = append([]string(nil), doc.ChunkIDs...)
	s.documents[doc.ID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc.ChunkIDs = append([]string(nil), doc.ChunkIDs...)
	return &doc, nil
}

// ListDocuments returns all documents, most recently created first.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		doc.ChunkIDs = append([]string(nil), doc.ChunkIDs...)
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// PutChunks stores or replaces chunks.
func (s *DocumentStore) PutChunks(_ context.Context, chunks ...domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		if old, ok := s.chunks[chunk.ID]; ok && old.DocumentID != chunk.DocumentID {
			delete(s.byDoc[old.DocumentID], chunk.ID)
		}
		s.chunks[chunk.ID] = chunk
		ids, ok := s.byDoc[chunk.DocumentID]
		if !ok {
			ids = make(map[string]struct{})
			s.byDoc[chunk.DocumentID] = ids
		}
		ids[chunk.ID] = struct{}{}
	}
	return nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// GetChunks retrieves all chunks for a document in position order.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDoc[documentID]
	result := make([]domain.Chunk, 0, len(ids))
	for id := range ids {
		result = append(result, s.chunks[id])
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

// DeleteByDocument erases every chunk of a document and returns the count.
func (s *DocumentStore) DeleteByDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byDoc[documentID]
	for id := range ids {
		delete(s.chunks, id)
	}
	delete(s.byDoc, documentID)
	return len(ids), nil
}

// CountChunks returns the number of stored chunks.
func (s *DocumentStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}
