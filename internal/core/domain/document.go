package domain

import "time"

// DocumentStatus is the lifecycle state of an ingested document.
type DocumentStatus string

// Document lifecycle states.
const (
	// StatusProcessing means chunks are being embedded and indexed.
	StatusProcessing DocumentStatus = "processing"

	// StatusProcessed means every chunk is in the registry and the index.
	StatusProcessed DocumentStatus = "processed"

	// StatusFailed means ingestion stopped; no chunks are visible.
	StatusFailed DocumentStatus = "failed"

	// StatusDeleted means the document's chunks were erased.
	StatusDeleted DocumentStatus = "deleted"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusProcessing, StatusProcessed, StatusFailed, StatusDeleted:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// Document represents an ingested document and the chunks it owns.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original file name supplied at ingestion.
	Filename string

	// Path is the file system location when ingested from disk.
	Path string

	// MIMEType is the declared content type of the source file.
	MIMEType string

	// ChunkIDs lists owned chunks in position order, without duplicates.
	// Empty unless Status is StatusProcessed.
	ChunkIDs []string

	// Status is the lifecycle state.
	Status DocumentStatus

	// Error holds the failure reason when Status is StatusFailed.
	Error string

	// CreatedAt is when ingestion started.
	CreatedAt time.Time

	// UpdatedAt is when the status last changed.
	UpdatedAt time.Time
}

// ChunkCount returns the number of chunks the document owns.
func (d *Document) ChunkCount() int {
	return len(d.ChunkIDs)
}

// Chunk represents a retrievable unit within a document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the zero-based ordinal within the document.
	Position int

	// Content is the text of this chunk.
	Content string

	// Start is the character offset of the first rune (inclusive).
	Start int

	// End is the character offset after the last rune (exclusive).
	End int
}

// Len returns the length of the chunk span in characters.
func (c *Chunk) Len() int {
	return c.End - c.Start
}
