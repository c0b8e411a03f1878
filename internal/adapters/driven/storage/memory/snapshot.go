package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

// Ensure SnapshotStore implements the interface.
var _ driven.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore keeps an index snapshot in memory. Used by tests and
// ephemeral runs.
type SnapshotStore struct {
	mu     sync.RWMutex
	data   []byte
	writes int
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Write replaces the stored snapshot.
func (s *SnapshotStore) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.writes++
	return nil
}

// Read returns a copy of the stored snapshot.
func (s *SnapshotStore) Read(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

// Writes returns how many times the snapshot was written.
func (s *SnapshotStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Location returns a display name for the store.
func (s *SnapshotStore) Location() string {
	return ":memory:"
}
