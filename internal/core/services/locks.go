package services

import "sync"

// DocumentLocks serialises work on the same document ID. Services that
// mutate documents must share one instance.
type DocumentLocks struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// NewDocumentLocks creates an empty lock set.
func NewDocumentLocks() *DocumentLocks {
	return &DocumentLocks{active: make(map[string]struct{})}
}

func (l *DocumentLocks) tryLock(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[id]; busy {
		return false
	}
	l.active[id] = struct{}{}
	return true
}

func (l *DocumentLocks) unlock(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, id)
}

func orNewLocks(l *DocumentLocks) *DocumentLocks {
	if l == nil {
		return NewDocumentLocks()
	}
	return l
}
