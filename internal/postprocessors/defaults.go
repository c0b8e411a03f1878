package postprocessors

import (
	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/postprocessors/chunker"
)

// DefaultChunker is the name of the built-in sliding-window chunker.
const DefaultChunker = "chunker"

// RegisterDefaults registers all built-in chunkers with the registry.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register(DefaultChunker, buildChunker)
}

// ChunkingConfig converts chunking settings into builder config.
func ChunkingConfig(s domain.ChunkingSettings) map[string]any {
	return map[string]any{
		"chunk_size": s.Size,
		"overlap":    s.Overlap,
	}
}

// buildChunker creates a chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
//
// Invalid combinations fail with domain.ErrInvalidConfiguration.
func buildChunker(cfg map[string]any) (driven.Chunker, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...)
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
