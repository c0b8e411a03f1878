// Package ai builds the embedding and LLM provider adapters from settings.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/docuquery/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docuquery/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/docuquery/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/docuquery/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docuquery/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

// PingTimeout bounds connectivity checks.
const PingTimeout = 5 * time.Second

// Services holds the provider adapters used by the pipeline.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases both services. Nil services are skipped.
func (s *Services) Close() error {
	var errs []error
	if s.Embedding != nil {
		errs = append(errs, s.Embedding.Close())
	}
	if s.LLM != nil {
		errs = append(errs, s.LLM.Close())
	}
	return errors.Join(errs...)
}

// NewServices creates both adapters. The LLM is optional for commands that
// only ingest or retrieve, so pass requireLLM=false to tolerate a missing key.
func NewServices(settings domain.Settings, requireLLM bool) (*Services, error) {
	emb, err := CreateEmbeddingService(settings.Embedding)
	if err != nil {
		return nil, err
	}

	llm, err := CreateLLMService(settings.LLM)
	if err != nil {
		if requireLLM {
			emb.Close()
			return nil, err
		}
		llm = nil
	}

	return &Services{Embedding: emb, LLM: llm}, nil
}

// CreateEmbeddingService creates the embedding adapter for the configured provider.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%w: %s does not support embeddings, use ollama or openai",
			domain.ErrInvalidConfiguration, settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, notConfigured("embedding", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidConfiguration, settings.Provider)
	}
}

// CreateLLMService creates the LLM adapter for the configured provider.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, notConfigured("llm", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}
		return svc, nil

	case domain.AIProviderAnthropic:
		svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unsupported llm provider: %s", domain.ErrInvalidConfiguration, settings.Provider)
	}
}

func notConfigured(kind string, provider domain.AIProvider) error {
	if provider.RequiresAPIKey() {
		return fmt.Errorf("%w: %s provider %s needs an API key (set %s.api_key or %s)",
			domain.ErrInvalidConfiguration, kind, provider, kind, envFor(provider))
	}
	return fmt.Errorf("%w: %s provider %q is not usable", domain.ErrInvalidConfiguration, kind, provider)
}

func envFor(provider domain.AIProvider) string {
	if provider == domain.AIProviderAnthropic {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// pinger is satisfied by both provider ports.
type pinger interface {
	Ping(ctx context.Context) error
}
