package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

func newTestGateway(embedder *mockEmbedder, batchSize int) *EmbeddingGateway {
	settings := domain.DefaultSettings().Embedding
	settings.BatchSize = batchSize
	g := NewEmbeddingGateway(embedder, settings)
	g.SetRetryPolicy(fastRetry)
	return g
}

func TestEmbeddingGateway_PreservesOrder(t *testing.T) {
	embedder := &mockEmbedder{}
	g := newTestGateway(embedder, 2)

	texts := []string{"alpha", "beta beta", "gamma", "delta alpha", "beta"}
	vectors, err := g.Embed(context.Background(), texts)

	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, keywordVector(text), vectors[i], text)
	}
}

func TestEmbeddingGateway_Batching(t *testing.T) {
	embedder := &mockEmbedder{}
	g := newTestGateway(embedder, 2)

	_, err := g.Embed(context.Background(), []string{"a1", "a2", "a3", "a4", "a5"})
	require.NoError(t, err)

	assert.Equal(t, 3, embedder.Calls())
	assert.Equal(t, [][]string{{"a1", "a2"}, {"a3", "a4"}, {"a5"}}, embedder.batches)
}

func TestEmbeddingGateway_DefaultBatchSize(t *testing.T) {
	g := newTestGateway(&mockEmbedder{}, 0)
	assert.Equal(t, DefaultEmbeddingBatchSize, g.BatchSize())
}

func TestEmbeddingGateway_Empty(t *testing.T) {
	embedder := &mockEmbedder{}
	g := newTestGateway(embedder, 2)

	vectors, err := g.Embed(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, embedder.Calls())
}

func TestEmbeddingSession_DeduplicatesAndCaches(t *testing.T) {
	embedder := &mockEmbedder{}
	g := newTestGateway(embedder, 10)
	session := g.NewSession()

	vectors, err := session.Embed(context.Background(), []string{"alpha", "beta", "alpha"})
	require.NoError(t, err)
	assert.Equal(t, vectors[0], vectors[2])
	assert.Equal(t, [][]string{{"alpha", "beta"}}, embedder.batches)
	assert.Equal(t, 2, session.CacheSize())

	// Cached texts are not re-sent.
	_, err = session.Embed(context.Background(), []string{"beta", "gamma"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"alpha", "beta"}, {"gamma"}}, embedder.batches)

	// A new session starts cold.
	_, err = g.NewSession().Embed(context.Background(), []string{"alpha"})
	require.NoError(t, err)
	assert.Equal(t, 3, embedder.Calls())
}

func TestEmbeddingGateway_RetriesTransientFailure(t *testing.T) {
	embedder := &mockEmbedder{failTimes: 2}
	g := newTestGateway(embedder, 10)

	vectors, err := g.Embed(context.Background(), []string{"alpha"})

	require.NoError(t, err)
	assert.Equal(t, keywordVector("alpha"), vectors[0])
	assert.Equal(t, 3, embedder.Calls())
}

func TestEmbeddingGateway_UnavailableAfterRetries(t *testing.T) {
	embedder := &mockEmbedder{failTimes: -1}
	g := newTestGateway(embedder, 10)

	_, err := g.Embed(context.Background(), []string{"alpha"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, errProviderDown)
	assert.Equal(t, fastRetry.MaxRetries+1, embedder.Calls())
}

func TestEmbeddingGateway_TimeoutIsUnavailable(t *testing.T) {
	embedder := &mockEmbedder{delay: time.Second}
	g := newTestGateway(embedder, 10)
	p := fastRetry
	p.MaxRetries = 1
	p.Timeout = 5 * time.Millisecond
	g.SetRetryPolicy(p)

	start := time.Now()
	_, err := g.Embed(context.Background(), []string{"alpha"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestEmbeddingGateway_ShortResponseIsUnavailable(t *testing.T) {
	embedder := &mockEmbedder{short: true}
	g := newTestGateway(embedder, 10)

	_, err := g.Embed(context.Background(), []string{"alpha", "beta"})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbeddingGateway_RateLimited(t *testing.T) {
	settings := domain.DefaultSettings().Embedding
	settings.BatchSize = 1
	settings.RequestsPerSecond = 50
	embedder := &mockEmbedder{}
	g := NewEmbeddingGateway(embedder, settings)
	require.NotNil(t, g.limiter)

	texts := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		texts = append(texts, string(rune('A'+i)))
	}

	start := time.Now()
	_, err := g.Embed(context.Background(), texts)
	require.NoError(t, err)

	// Burst of 50 then 10 more at 50/s needs at least ~200ms.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
