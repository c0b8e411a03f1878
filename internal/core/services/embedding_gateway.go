package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/logger"
	"github.com/custodia-labs/docuquery/internal/metrics"
)

// DefaultEmbeddingBatchSize is used when the configured batch size is not positive.
const DefaultEmbeddingBatchSize = 64

// EmbeddingGateway batches texts to the embedding capability, retries
// transient failures and maps results back to input order.
type EmbeddingGateway struct {
	embedder  driven.EmbeddingService
	batchSize int
	retry     RetryPolicy
	limiter   *rate.Limiter
}

// NewEmbeddingGateway creates a gateway over embedder using the batching,
// retry, timeout and throttling options in settings.
func NewEmbeddingGateway(embedder driven.EmbeddingService, settings domain.EmbeddingSettings) *EmbeddingGateway {
	batchSize := settings.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultEmbeddingBatchSize
	}

	g := &EmbeddingGateway{
		embedder:  embedder,
		batchSize: batchSize,
		retry:     DefaultRetryPolicy(settings.MaxRetries, settings.Timeout),
	}
	if settings.RequestsPerSecond > 0 {
		burst := int(settings.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), burst)
	}
	return g
}

// SetRetryPolicy overrides the retry policy. Used by tests to shorten backoff.
func (g *EmbeddingGateway) SetRetryPolicy(p RetryPolicy) {
	g.retry = p
}

// BatchSize returns the effective batch size.
func (g *EmbeddingGateway) BatchSize() int {
	return g.batchSize
}

// ModelName returns the underlying embedding model name.
func (g *EmbeddingGateway) ModelName() string {
	return g.embedder.ModelName()
}

// Embed returns one vector per text, in input order. Duplicate texts
// within the call are embedded once.
func (g *EmbeddingGateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return g.NewSession().Embed(ctx, texts)
}

// NewSession starts an embedding session whose cache lives only as long
// as the session, typically one ingestion.
func (g *EmbeddingGateway) NewSession() *EmbeddingSession {
	return &EmbeddingSession{
		gateway: g,
		cache:   make(map[string][]float32),
	}
}

// EmbeddingSession caches vectors by exact text. It is not safe for
// concurrent use.
type EmbeddingSession struct {
	gateway *EmbeddingGateway
	cache   map[string][]float32
}

// CacheSize returns the number of distinct texts embedded so far.
func (s *EmbeddingSession) CacheSize() int {
	return len(s.cache)
}

// Embed returns one vector per text, in input order, reusing cached vectors.
func (s *EmbeddingSession) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	// Distinct texts not yet cached, in first-seen order.
	var pending []string
	seen := make(map[string]struct{})
	for _, t := range texts {
		if _, ok := s.cache[t]; ok {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		pending = append(pending, t)
	}

	if len(pending) < len(texts) {
		logger.Debug("Embedding %d texts (%d distinct uncached)", len(texts), len(pending))
	}

	size := s.gateway.batchSize
	for start := 0; start < len(pending); start += size {
		end := min(start+size, len(pending))
		batch := pending[start:end]

		vectors, err := s.gateway.embedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		for i, v := range vectors {
			s.cache[batch[i]] = v
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.cache[t]
	}
	return out, nil
}

// embedBatch makes one logical call, with retries, for a single batch.
func (g *EmbeddingGateway) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var vectors [][]float32

	err := withRetry(ctx, g.retry, "embedding batch", func(ctx context.Context) error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		out, err := g.embedder.EmbedBatch(ctx, batch)
		if err == nil && len(out) != len(batch) {
			err = fmt.Errorf("provider returned %d vectors for %d texts", len(out), len(batch))
		}
		metrics.RecordEmbedding(err, time.Since(start))
		if err != nil {
			return err
		}
		vectors = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return vectors, nil
}
