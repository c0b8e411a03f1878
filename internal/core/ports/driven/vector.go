package driven

import "context"

// VectorIndex maps chunk IDs to embedding vectors and answers
// nearest-neighbour queries by cosine similarity.
//
// The first Insert fixes the dimensionality for the lifetime of the index;
// a vector of any other length fails with domain.ErrDimensionMismatch.
// Remove is a logical delete: the entry is tombstoned, never returned by
// Search and never counted toward k, until Compact drops it physically.
//
// Implementations must allow concurrent Search calls and serialise
// Insert, Remove, Compact and Load against each other and against searches.
type VectorIndex interface {
	// Insert adds or replaces the vector for a chunk ID.
	Insert(ctx context.Context, chunkID string, vector []float32) error

	// Remove tombstones the entry for a chunk ID. Unknown IDs are ignored.
	Remove(ctx context.Context, chunkID string) error

	// Search returns up to k live entries in descending similarity order.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Persist writes a consistent snapshot of the full index state.
	Persist(ctx context.Context) error

	// Load replaces the in-memory state with the stored snapshot.
	// A missing snapshot leaves an empty index and is not an error.
	Load(ctx context.Context) error

	// Compact physically drops tombstoned entries and returns how many.
	Compact(ctx context.Context) (int, error)

	// Contains reports whether chunkID has a live, untombstoned entry.
	Contains(chunkID string) bool

	// Stats reports entry counts and dimensionality.
	Stats() VectorIndexStats

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64
}

// VectorIndexStats describes index contents.
type VectorIndexStats struct {
	Live       int
	Tombstoned int
	Dimensions int
}
