package driving

import (
	"context"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// IngestService turns extracted text into indexed, retrievable chunks.
type IngestService interface {
	// Ingest chunks, embeds and indexes req.Text under a document.
	// A document whose status is failed or deleted may be ingested again
	// under the same ID; any other existing ID fails with ErrAlreadyExists.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)

	// IngestFile extracts text from the file at path and ingests it.
	// A live document previously ingested from the same path is replaced.
	// Unsupported formats fail with ErrUnsupportedFormat before any
	// document is created.
	IngestFile(ctx context.Context, path string) (*IngestResult, error)

	// RemoveFile deletes the live document ingested from path.
	// Returns ErrNotFound when no such document exists.
	RemoveFile(ctx context.Context, path string) (int, error)
}

// IngestRequest describes one document to ingest.
type IngestRequest struct {
	// DocumentID is optional; a UUID is generated when empty.
	DocumentID string

	// Text is the extracted plain text. Must not be blank.
	Text string

	// Filename is the display name used in sources and context headers.
	Filename string

	// Path is the file the text came from, if any.
	Path string

	// MIMEType is the declared type of the original file, if known.
	MIMEType string
}

// IngestResult reports the outcome of an ingestion.
type IngestResult struct {
	DocumentID string
	ChunkCount int
	Status     domain.DocumentStatus
}
