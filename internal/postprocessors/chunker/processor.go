// Package chunker provides a fixed-size sliding-window text chunker.
package chunker

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// chunkNamespace scopes chunk IDs derived from document ID and position.
var chunkNamespace = uuid.MustParse("6f1c2f4e-8a3b-5d7e-9c0a-1b2d3e4f5a6b")

// Window is one span produced by Split. Offsets count characters (runes),
// start inclusive and end exclusive.
type Window struct {
	Position int
	Start    int
	End      int
	Text     string
}

// Split slides a window of size characters across text, advancing by
// size-overlap. The final window may be shorter and is always kept.
// Empty text yields no windows.
func Split(text string, size, overlap int) ([]Window, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	n := len(runes)
	step := size - overlap

	windows := make([]Window, 0, n/step+1)
	for start := 0; ; start += step {
		end := min(start+size, n)
		windows = append(windows, Window{
			Position: len(windows),
			Start:    start,
			End:      end,
			Text:     string(runes[start:end]),
		})
		if end == n {
			break
		}
	}

	return windows, nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfiguration, size)
	}
	if overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", domain.ErrInvalidConfiguration, overlap)
	}
	if overlap >= size {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidConfiguration, overlap, size)
	}
	return nil
}

// Processor splits document text into chunks with stable IDs.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrInvalidConfiguration unless 0 <= overlap < chunk size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunk splits text into chunks owned by documentID.
// Chunk IDs are name-based UUIDs of document ID and position, so
// re-chunking the same document reproduces the same IDs.
func (p *Processor) Chunk(documentID, text string) ([]domain.Chunk, error) {
	windows, err := Split(text, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(windows))
	for _, w := range windows {
		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(documentID, w.Position),
			DocumentID: documentID,
			Position:   w.Position,
			Content:    w.Text,
			Start:      w.Start,
			End:        w.End,
		})
	}

	return chunks, nil
}

// ChunkID returns the stable identifier for a document position.
func ChunkID(documentID string, position int) string {
	return uuid.NewSHA1(chunkNamespace, []byte(documentID+"/"+strconv.Itoa(position))).String()
}
