package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// ChunkingSettings controls the sliding-window chunker.
type ChunkingSettings struct {
	// Size is the window length in characters.
	Size int

	// Overlap is the number of characters shared by adjacent windows.
	// Must be smaller than Size.
	Overlap int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// BatchSize bounds the number of texts sent per request.
	BatchSize int

	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries int

	// Timeout bounds each request.
	Timeout time.Duration

	// RequestsPerSecond throttles requests. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible gateways).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxTokens bounds the generated answer length.
	MaxTokens int

	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries int

	// Timeout bounds each request.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings controls the retriever.
type RetrievalSettings struct {
	// TopK is the default number of chunks returned per query.
	TopK int

	// Margin is the number of extra index hits requested to absorb
	// registry misses. Zero means "same as top_k".
	Margin int
}

// AnswerSettings controls answer composition.
type AnswerSettings struct {
	// MaxContextChars bounds the grounding context length.
	MaxContextChars int
}

// StorageSettings controls where state is kept.
type StorageSettings struct {
	// DataDir holds the metadata database and the index snapshot.
	DataDir string
}

// LoggingSettings controls log output.
type LoggingSettings struct {
	// Format is "console" or "json".
	Format string
}

// Settings holds all application settings.
type Settings struct {
	Chunking  ChunkingSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Retrieval RetrievalSettings
	Answer    AnswerSettings
	Storage   StorageSettings
	Logging   LoggingSettings
}

// DefaultSettings returns settings with sensible defaults.
// API keys and the data directory are left empty.
func DefaultSettings() Settings {
	return Settings{
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 200,
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderOpenAI,
			Model:      DefaultEmbeddingModels()[AIProviderOpenAI],
			BatchSize:  64,
			MaxRetries: 3,
			Timeout:    30 * time.Second,
		},
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       DefaultLLMModels()[AIProviderOpenAI],
			Temperature: 0.7,
			MaxTokens:   1024,
			MaxRetries:  3,
			Timeout:     60 * time.Second,
		},
		Retrieval: RetrievalSettings{
			TopK: 3,
		},
		Answer: AnswerSettings{
			MaxContextChars: 8000,
		},
		Logging: LoggingSettings{
			Format: "console",
		},
	}
}

// Validate reports settings that can never work. Every failure wraps
// ErrInvalidConfiguration.
func (s Settings) Validate() error {
	if s.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfiguration, s.Chunking.Size)
	}
	if s.Chunking.Overlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidConfiguration, s.Chunking.Overlap)
	}
	if s.Chunking.Overlap >= s.Chunking.Size {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrInvalidConfiguration, s.Chunking.Overlap, s.Chunking.Size)
	}
	if !s.Embedding.Provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %q does not support embeddings", ErrInvalidConfiguration, s.Embedding.Provider)
	}
	if s.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding batch size must be positive", ErrInvalidConfiguration)
	}
	if s.Embedding.MaxRetries < 0 || s.LLM.MaxRetries < 0 {
		return fmt.Errorf("%w: retry counts must not be negative", ErrInvalidConfiguration)
	}
	if s.Embedding.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: embedding requests per second must not be negative", ErrInvalidConfiguration)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfiguration, s.LLM.Provider)
	}
	if s.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval top_k must be positive", ErrInvalidConfiguration)
	}
	if s.Retrieval.Margin < 0 {
		return fmt.Errorf("%w: retrieval margin must not be negative", ErrInvalidConfiguration)
	}
	if s.Answer.MaxContextChars <= 0 {
		return fmt.Errorf("%w: answer max_context_chars must be positive", ErrInvalidConfiguration)
	}
	switch s.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfiguration, s.Logging.Format)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
