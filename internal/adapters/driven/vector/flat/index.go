package flat

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// ErrClosed is returned by operations on a closed index.
var ErrClosed = errors.New("vector index: closed")

type entry struct {
	chunkID string
	vector  []float32
	norm    float64
	dead    bool
}

// Index is an in-memory vector index guarded by a read-write lock.
// Searches share the read lock; mutations take the write lock.
type Index struct {
	mu         sync.RWMutex
	entries    []entry
	positions  map[string]int
	dimension  int
	tombstoned int
	closed     bool

	// persistMu orders snapshot writes so an older snapshot never
	// overwrites a newer one.
	persistMu sync.Mutex
	store     driven.SnapshotStore
}

// New creates an empty index. The store may be nil, in which case
// Persist and Load return domain.ErrNotImplemented.
func New(store driven.SnapshotStore) *Index {
	return &Index{
		positions: make(map[string]int),
		store:     store,
	}
}

// Insert adds or replaces the vector for a chunk ID. The first insert fixes
// the index dimensionality. Re-inserting a tombstoned ID revives it.
func (idx *Index) Insert(_ context.Context, chunkID string, vector []float32) error {
	if chunkID == "" {
		return fmt.Errorf("vector index: insert: %w: empty chunk id", domain.ErrInvalidInput)
	}
	if len(vector) == 0 {
		return fmt.Errorf("vector index: insert %s: %w: empty vector", chunkID, domain.ErrInvalidInput)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrClosed
	}
	if idx.dimension == 0 {
		idx.dimension = len(vector)
	} else if len(vector) != idx.dimension {
		return fmt.Errorf("vector index: insert %s: %w: got %d, index has %d",
			chunkID, domain.ErrDimensionMismatch, len(vector), idx.dimension)
	}

	e := entry{
		chunkID: chunkID,
		vector:  append([]float32(nil), vector...),
		norm:    norm(vector),
	}

	if pos, ok := idx.positions[chunkID]; ok {
		if idx.entries[pos].dead {
			idx.tombstoned--
		}
		idx.entries[pos] = e
		return nil
	}

	idx.positions[chunkID] = len(idx.entries)
	idx.entries = append(idx.entries, e)
	return nil
}

// Remove tombstones the entry for a chunk ID. Unknown or already
// tombstoned IDs are ignored.
func (idx *Index) Remove(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrClosed
	}

	pos, ok := idx.positions[chunkID]
	if !ok || idx.entries[pos].dead {
		return nil
	}

	idx.entries[pos].dead = true
	idx.tombstoned++
	return nil
}

// Search returns up to k live entries ranked by descending cosine
// similarity. An index that has never held a vector returns no hits for
// any query.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, ErrClosed
	}
	if k <= 0 || idx.dimension == 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("vector index: search: %w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}

	qnorm := norm(query)
	top := make(hitHeap, 0, min(k, len(idx.entries)))

	for i := range idx.entries {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		e := &idx.entries[i]
		if e.dead {
			continue
		}

		hit := driven.VectorHit{
			ChunkID:    e.chunkID,
			Similarity: cosine(query, e.vector, qnorm, e.norm),
		}

		if len(top) < k {
			heap.Push(&top, hit)
		} else if ranksBefore(hit, top[0]) {
			top[0] = hit
			heap.Fix(&top, 0)
		}
	}

	hits := make([]driven.VectorHit, len(top))
	for i := len(top) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(&top).(driven.VectorHit)
	}

	return hits, nil
}

// Persist encodes the full index state under the read lock and writes it
// to the snapshot store.
func (idx *Index) Persist(ctx context.Context) error {
	if idx.store == nil {
		return fmt.Errorf("vector index: persist: %w: no snapshot store", domain.ErrNotImplemented)
	}

	idx.persistMu.Lock()
	defer idx.persistMu.Unlock()

	idx.mu.RLock()
	if idx.closed {
		idx.mu.RUnlock()
		return ErrClosed
	}
	data := encodeSnapshot(idx.dimension, idx.entries)
	idx.mu.RUnlock()

	if err := idx.store.Write(ctx, data); err != nil {
		return fmt.Errorf("vector index: persist: %w", err)
	}
	return nil
}

// Load replaces the in-memory state with the stored snapshot. A missing
// snapshot leaves the index unchanged.
func (idx *Index) Load(ctx context.Context) error {
	if idx.store == nil {
		return fmt.Errorf("vector index: load: %w: no snapshot store", domain.ErrNotImplemented)
	}

	data, err := idx.store.Read(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("vector index: load: %w", err)
	}

	dimension, entries, err := decodeSnapshot(data)
	if err != nil {
		return fmt.Errorf("vector index: load %s: %w", idx.store.Location(), err)
	}

	positions := make(map[string]int, len(entries))
	tombstoned := 0
	for i := range entries {
		entries[i].norm = norm(entries[i].vector)
		positions[entries[i].chunkID] = i
		if entries[i].dead {
			tombstoned++
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrClosed
	}
	idx.entries = entries
	idx.positions = positions
	idx.dimension = dimension
	idx.tombstoned = tombstoned
	return nil
}

// Compact drops tombstoned entries. Dimensionality is kept even if the
// index becomes empty.
func (idx *Index) Compact(_ context.Context) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return 0, ErrClosed
	}
	if idx.tombstoned == 0 {
		return 0, nil
	}

	live := make([]entry, 0, len(idx.entries)-idx.tombstoned)
	positions := make(map[string]int, cap(live))
	for _, e := range idx.entries {
		if e.dead {
			continue
		}
		positions[e.chunkID] = len(live)
		live = append(live, e)
	}

	removed := idx.tombstoned
	idx.entries = live
	idx.positions = positions
	idx.tombstoned = 0
	return removed, nil
}

// Stats reports entry counts and dimensionality.
func (idx *Index) Stats() driven.VectorIndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return driven.VectorIndexStats{
		Live:       len(idx.entries) - idx.tombstoned,
		Tombstoned: idx.tombstoned,
		Dimensions: idx.dimension,
	}
}

// Contains reports whether chunkID has a live entry.
func (idx *Index) Contains(chunkID string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	pos, ok := idx.positions[chunkID]
	return ok && !idx.entries[pos].dead
}

// Close releases the in-memory state. It does not persist.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.closed = true
	idx.entries = nil
	idx.positions = nil
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero magnitude.
func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	sim := dot / (normA * normB)
	switch {
	case sim > 1:
		return 1
	case sim < -1:
		return -1
	case math.IsNaN(sim):
		return 0
	default:
		return sim
	}
}

// ranksBefore orders by similarity, then chunk ID for stable ties.
func ranksBefore(a, b driven.VectorHit) bool {
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	return a.ChunkID < b.ChunkID
}

// hitHeap is a min-heap on rank: the root is the worst kept hit.
type hitHeap []driven.VectorHit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return ranksBefore(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(driven.VectorHit)) }

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
