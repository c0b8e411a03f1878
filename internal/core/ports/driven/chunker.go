package driven

import "github.com/custodia-labs/docuquery/internal/core/domain"

// Chunker splits extracted document text into retrievable chunks.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Chunk returns the chunks of text owned by documentID, in position
	// order. Identical input always yields identical chunks.
	Chunk(documentID, text string) ([]domain.Chunk, error)
}
