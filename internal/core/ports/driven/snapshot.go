package driven

import "context"

// SnapshotStore is byte-level durable storage for a single index snapshot.
type SnapshotStore interface {
	// Write replaces the stored snapshot. Readers never observe a
	// partially written snapshot.
	Write(ctx context.Context, data []byte) error

	// Read returns the stored snapshot, or domain.ErrNotFound if none exists.
	Read(ctx context.Context) ([]byte, error)

	// Location describes where the snapshot lives, for display.
	Location() string
}
