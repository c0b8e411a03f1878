package domain

// NoContentAnswer is returned, without calling the generator, when
// retrieval finds nothing to ground an answer on.
const NoContentAnswer = "I don't have any relevant documents to answer this question."

// PreviewLength is the number of characters kept in a Source preview.
const PreviewLength = 200

// ScoredChunk pairs a resolved chunk with its similarity to the query.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity in [-1, 1].
	Score float64
}

// RetrievalResult is an ordered set of chunks, highest score first.
type RetrievalResult struct {
	// Query is the trimmed question text.
	Query string

	// Chunks are the resolved hits in descending score order.
	Chunks []ScoredChunk
}

// IsEmpty returns true if nothing was retrieved.
func (r RetrievalResult) IsEmpty() bool {
	return len(r.Chunks) == 0
}

// TopScore returns the highest similarity, or 0 when empty.
func (r RetrievalResult) TopScore() float64 {
	if len(r.Chunks) == 0 {
		return 0
	}
	return r.Chunks[0].Score
}

// Source describes one chunk used to ground an answer.
type Source struct {
	DocumentID string
	Filename   string
	ChunkID    string
	Position   int
	Score      float64

	// Preview is the first PreviewLength characters of the chunk text,
	// followed by "..." when truncated.
	Preview string
}

// Answer is the structured result of a query. It is not persisted.
type Answer struct {
	// Question is the query as asked.
	Question string

	// Text is the generated answer, or NoContentAnswer.
	Text string

	// Retrieval is the grounding used to generate Text.
	Retrieval RetrievalResult

	// Sources describe the grounding chunks in retrieval order.
	Sources []Source

	// Confidence is in [0, 1]; zero when nothing was retrieved.
	Confidence float64
}

// IndexStats summarises corpus and vector index state.
type IndexStats struct {
	// Documents counts documents by lifecycle status.
	Documents map[DocumentStatus]int

	// Chunks is the number of chunks in the registry.
	Chunks int

	// LiveVectors is the number of searchable index entries.
	LiveVectors int

	// TombstonedVectors is the number of logically deleted entries.
	TombstonedVectors int

	// Dimensions is the established vector length, or 0 if unset.
	Dimensions int
}

// TotalDocuments returns the number of documents across all states.
func (s IndexStats) TotalDocuments() int {
	total := 0
	for _, n := range s.Documents {
		total += n
	}
	return total
}
