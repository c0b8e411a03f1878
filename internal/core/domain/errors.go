package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict indicates another operation holds the entity, such as
	// deleting a document while it is being ingested.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidConfiguration indicates settings that can never work,
	// such as a chunk overlap that is not smaller than the chunk size.
	// It is fatal at startup and never retried.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidQuery indicates a rejected question: blank text or a
	// non-positive result count.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbeddingUnavailable indicates the embedding capability failed
	// or timed out after all retries.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the answer generation capability
	// failed or timed out after all retries.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// dimensionality fixed by the first insert into the index.
	// Usually the embedding model changed without reindexing.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// Extraction Errors.

	// ErrUnsupportedFormat indicates no normaliser handles the file type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractionFailed indicates a supported file could not be read.
	ErrExtractionFailed = errors.New("extraction failed")

	// Persistence Errors.

	// ErrCorruptSnapshot indicates an index snapshot failed validation on load.
	ErrCorruptSnapshot = errors.New("corrupt index snapshot")
)
