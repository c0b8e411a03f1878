package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/logger"
)

// Retriever embeds a query, searches the vector index and resolves hits
// through the chunk registry.
type Retriever struct {
	gateway  *EmbeddingGateway
	index    driven.VectorIndex
	registry driven.ChunkRegistry
	margin   int
}

// NewRetriever creates a retriever. margin is the number of extra index
// hits requested to absorb registry misses; zero means "as many as top_k".
func NewRetriever(
	gateway *EmbeddingGateway,
	index driven.VectorIndex,
	registry driven.ChunkRegistry,
	margin int,
) *Retriever {
	return &Retriever{
		gateway:  gateway,
		index:    index,
		registry: registry,
		margin:   margin,
	}
}

// Retrieve returns at most topK chunks in descending similarity order.
// An empty corpus, or hits that all miss the registry, yield an empty
// result rather than an error. When misses exhaust the margin the index
// is searched once more across all live vectors.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	result := domain.RetrievalResult{Query: query}

	if query == "" {
		return result, fmt.Errorf("%w: query is empty", domain.ErrInvalidQuery)
	}
	if topK <= 0 {
		return result, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidQuery, topK)
	}

	if r.index.Stats().Live == 0 {
		logger.Debug("Index holds no live vectors, skipping embedding")
		return result, nil
	}

	vectors, err := r.gateway.Embed(ctx, []string{query})
	if err != nil {
		return result, fmt.Errorf("embed query: %w", err)
	}

	margin := r.margin
	if margin <= 0 {
		margin = topK
	}
	internalK := topK + margin
	logger.Debug("Top-k: %d, internal k: %d", topK, internalK)

	hits, err := r.index.Search(ctx, vectors[0], internalK)
	if err != nil {
		return result, fmt.Errorf("search index: %w", err)
	}
	logger.Debug("Index hits: %d", len(hits))

	seen := make(map[string]struct{}, len(hits))
	if err := r.resolve(ctx, hits, topK, seen, &result); err != nil {
		return domain.RetrievalResult{Query: query}, err
	}

	// Misses used up the margin while the index may hold more candidates.
	if len(result.Chunks) < topK && len(hits) == internalK {
		if widened := r.index.Stats().Live; widened > internalK {
			logger.Debug("Widening search to %d after %d registry misses", widened, internalK-len(result.Chunks))
			hits, err = r.index.Search(ctx, vectors[0], widened)
			if err != nil {
				return domain.RetrievalResult{Query: query}, fmt.Errorf("search index: %w", err)
			}
			if err := r.resolve(ctx, hits, topK, seen, &result); err != nil {
				return domain.RetrievalResult{Query: query}, err
			}
		}
	}

	logger.Info("Retrieved %d chunks", len(result.Chunks))
	return result, nil
}

// resolve appends registry chunks for hits not yet in seen until result
// holds topK chunks.
func (r *Retriever) resolve(
	ctx context.Context,
	hits []driven.VectorHit,
	topK int,
	seen map[string]struct{},
	result *domain.RetrievalResult,
) error {
	for _, hit := range hits {
		if len(result.Chunks) == topK {
			return nil
		}
		if _, ok := seen[hit.ChunkID]; ok {
			continue
		}
		seen[hit.ChunkID] = struct{}{}

		chunk, err := r.registry.GetChunk(ctx, hit.ChunkID)
		if errors.Is(err, domain.ErrNotFound) {
			// Stale vector of a deleted document.
			logger.Debug("Dropping unresolved hit %s", hit.ChunkID)
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve chunk %s: %w", hit.ChunkID, err)
		}
		result.Chunks = append(result.Chunks, domain.ScoredChunk{Chunk: *chunk, Score: hit.Similarity})
	}
	return nil
}
