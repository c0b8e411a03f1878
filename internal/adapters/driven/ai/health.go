package ai

import (
	"context"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// ProviderStatus is the outcome of a single connectivity check.
type ProviderStatus struct {
	Kind     string // "embedding" or "llm"
	Provider domain.AIProvider
	Model    string
	Err      error
}

// OK reports whether the provider answered.
func (p ProviderStatus) OK() bool {
	return p.Err == nil
}

// Check pings each non-nil service, bounded by PingTimeout, and reports the results.
func Check(ctx context.Context, settings domain.Settings, svcs *Services) []ProviderStatus {
	var out []ProviderStatus
	if svcs == nil {
		return out
	}
	if svcs.Embedding != nil {
		out = append(out, ProviderStatus{
			Kind:     "embedding",
			Provider: settings.Embedding.Provider,
			Model:    svcs.Embedding.ModelName(),
			Err:      ping(ctx, svcs.Embedding),
		})
	}
	if svcs.LLM != nil {
		out = append(out, ProviderStatus{
			Kind:     "llm",
			Provider: settings.LLM.Provider,
			Model:    svcs.LLM.ModelName(),
			Err:      ping(ctx, svcs.LLM),
		})
	}
	return out
}

func ping(ctx context.Context, p pinger) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	return p.Ping(ctx)
}
