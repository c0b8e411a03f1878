package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docuquery/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/postprocessors/chunker"
)

// --- Mock implementations ---

var errProviderDown = errors.New("provider down")

// testVocabulary gives the keyword embedder its dimensions.
var testVocabulary = []string{"alpha", "beta", "gamma", "delta"}

// mockEmbedder embeds text as keyword counts over testVocabulary.
type mockEmbedder struct {
	mu         sync.Mutex
	calls      int
	batches    [][]string
	failTimes  int // fail this many calls before succeeding; -1 fails forever
	short      bool
	delay      time.Duration
	dimensions int
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.batches = append(m.batches, append([]string(nil), texts...))
	fail := m.failTimes != 0
	if m.failTimes > 0 {
		m.failTimes--
	}
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if fail {
		return nil, errProviderDown
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordVector(t)
	}
	if m.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int {
	if m.dimensions > 0 {
		return m.dimensions
	}
	return len(testVocabulary)
}

func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(testVocabulary))
	for i, word := range testVocabulary {
		v[i] = float32(strings.Count(lower, word))
	}
	return v
}

// mockLLM records chat requests and returns a canned reply.
type mockLLM struct {
	mu        sync.Mutex
	reply     string
	err       error
	failTimes int
	requests  [][]driven.ChatMessage
	options   []driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, messages)
	m.options = append(m.options, opts)
	if m.failTimes > 0 {
		m.failTimes--
		return "", errProviderDown
	}
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", domain.ErrNotFound
}

func (m *mockPromptStore) Reload() {}

// mockLoader serves raw documents from a map keyed by path.
type mockLoader struct {
	docs map[string]*domain.RawDocument
}

func (m *mockLoader) Load(_ context.Context, uri string) (*domain.RawDocument, error) {
	for path, doc := range m.docs {
		if strings.HasSuffix(uri, path) {
			return doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockNormalisers passes text/plain through and rejects everything else.
type mockNormalisers struct {
	err error
}

func (m *mockNormalisers) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if raw.MIMEType != "text/plain" {
		return nil, domain.ErrUnsupportedFormat
	}
	return &driven.NormaliseResult{Content: string(raw.Content)}, nil
}

func (m *mockNormalisers) Register(_ driven.Normaliser) {}

func (m *mockNormalisers) SupportedMIMETypes() []string { return []string{"text/plain"} }

func (m *mockNormalisers) Supports(mimeType string) bool { return mimeType == "text/plain" }

// failingRegistry wraps a registry and fails selected operations.
type failingRegistry struct {
	driven.ChunkRegistry
	putErr error
	getErr error
}

func (f *failingRegistry) PutChunks(ctx context.Context, chunks ...domain.Chunk) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.ChunkRegistry.PutChunks(ctx, chunks...)
}

func (f *failingRegistry) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.ChunkRegistry.GetChunk(ctx, id)
}

// failingIndex wraps an index and fails inserts after a number of successes.
type failingIndex struct {
	driven.VectorIndex
	insertsLeft int
}

func (f *failingIndex) Insert(ctx context.Context, chunkID string, vector []float32) error {
	if f.insertsLeft == 0 {
		return domain.ErrDimensionMismatch
	}
	f.insertsLeft--
	return f.VectorIndex.Insert(ctx, chunkID, vector)
}

// gatedIndex runs onFirstInsert before the first insert reaches the index.
type gatedIndex struct {
	driven.VectorIndex
	once          sync.Once
	onFirstInsert func()
}

func (g *gatedIndex) Insert(ctx context.Context, chunkID string, vector []float32) error {
	g.once.Do(g.onFirstInsert)
	return g.VectorIndex.Insert(ctx, chunkID, vector)
}

// --- Test harness ---

// fastRetry keeps retry tests quick.
var fastRetry = RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

// pipeline wires the services over in-memory adapters.
type pipeline struct {
	embedder  *mockEmbedder
	llm       *mockLLM
	store     *memory.DocumentStore
	snapshots *memory.SnapshotStore
	locks     *DocumentLocks
	index     *flat.Index
	gateway   *EmbeddingGateway
	ingest    *IngestService
	documents *DocumentService
	retriever *Retriever
	composer  *AnswerComposer
	query     *QueryService
}

func newPipeline(t *testing.T, size, overlap int) *pipeline {
	t.Helper()

	chunk, err := chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap))
	require.NoError(t, err)

	p := &pipeline{
		embedder:  &mockEmbedder{},
		llm:       &mockLLM{reply: "generated answer"},
		store:     memory.NewDocumentStore(),
		snapshots: memory.NewSnapshotStore(),
		locks:     NewDocumentLocks(),
	}
	p.index = flat.New(p.snapshots)

	settings := domain.DefaultSettings()
	p.gateway = NewEmbeddingGateway(p.embedder, settings.Embedding)
	p.gateway.SetRetryPolicy(fastRetry)

	p.ingest = NewIngestService(chunk, p.gateway, p.index, p.store, p.store,
		&mockLoader{docs: map[string]*domain.RawDocument{}}, &mockNormalisers{}, p.locks)
	p.documents = NewDocumentService(p.store, p.store, p.index, p.locks)
	p.retriever = NewRetriever(p.gateway, p.index, p.store, 0)
	p.composer = NewAnswerComposer(p.llm, p.store, settings.LLM, settings.Answer)
	p.composer.SetRetryPolicy(fastRetry)
	p.query = NewQueryService(p.retriever, p.composer)

	return p
}
