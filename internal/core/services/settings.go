package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkSize        = "chunking.chunk_size"
	keyChunkOverlap     = "chunking.overlap"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedBatchSize   = "embedding.batch_size"
	keyEmbedMaxRetries  = "embedding.max_retries"
	keyEmbedTimeout     = "embedding.timeout_seconds"
	keyEmbedRPS         = "embedding.requests_per_second"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTemperature   = "llm.temperature"
	keyLLMMaxTokens     = "llm.max_tokens"
	keyLLMMaxRetries    = "llm.max_retries"
	keyLLMTimeout       = "llm.timeout_seconds"
	keyRetrievalTopK    = "retrieval.top_k"
	keyRetrievalMargin  = "retrieval.margin"
	keyAnswerMaxContext = "answer.max_context_chars"
	keyStorageDataDir   = "storage.data_dir"
	keyLoggingFormat    = "logging.format"
)

// Environment variables that fill settings left empty in the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvDataDir         = "DOCUQUERY_DATA_DIR"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindProvider
)

// settingKeys lists every settable key with its value type.
var settingKeys = map[string]valueKind{
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedBatchSize:   kindInt,
	keyEmbedMaxRetries:  kindInt,
	keyEmbedTimeout:     kindInt,
	keyEmbedRPS:         kindFloat,
	keyLLMProvider:      kindProvider,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyLLMTemperature:   kindFloat,
	keyLLMMaxTokens:     kindInt,
	keyLLMMaxRetries:    kindInt,
	keyLLMTimeout:       kindInt,
	keyRetrievalTopK:    kindInt,
	keyRetrievalMargin:  kindInt,
	keyAnswerMaxContext: kindInt,
	keyStorageDataDir:   kindString,
	keyLoggingFormat:    kindString,
}

// SettingsService maps configuration keys to domain.Settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service reading the process
// environment for overrides.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// SetEnvLookup replaces the environment lookup. Used by tests.
func (s *SettingsService) SetEnvLookup(getenv func(string) string) {
	s.getenv = getenv
}

// Get retrieves current application settings: defaults, overlaid by the
// config file, with empty keys and paths filled from the environment.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)

	settings := &domain.Settings{
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          embedProvider,
			Model:             s.getString(keyEmbedModel, defaultModel(domain.DefaultEmbeddingModels(), embedProvider)),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.getString(keyEmbedAPIKey, s.envAPIKey(embedProvider)),
			BatchSize:         s.getInt(keyEmbedBatchSize, defaults.Embedding.BatchSize),
			MaxRetries:        s.getInt(keyEmbedMaxRetries, defaults.Embedding.MaxRetries),
			Timeout:           s.getSeconds(keyEmbedTimeout, defaults.Embedding.Timeout),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
		},
		LLM: domain.LLMSettings{
			Provider:    llmProvider,
			Model:       s.getString(keyLLMModel, defaultModel(domain.DefaultLLMModels(), llmProvider)),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.getString(keyLLMAPIKey, s.envAPIKey(llmProvider)),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			MaxRetries:  s.getInt(keyLLMMaxRetries, defaults.LLM.MaxRetries),
			Timeout:     s.getSeconds(keyLLMTimeout, defaults.LLM.Timeout),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:   s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
			Margin: s.getInt(keyRetrievalMargin, defaults.Retrieval.Margin),
		},
		Answer: domain.AnswerSettings{
			MaxContextChars: s.getInt(keyAnswerMaxContext, defaults.Answer.MaxContextChars),
		},
		Storage: domain.StorageSettings{
			DataDir: s.getString(keyStorageDataDir, s.getenv(EnvDataDir)),
		},
		Logging: domain.LoggingSettings{
			Format: s.getString(keyLoggingFormat, defaults.Logging.Format),
		},
	}

	return settings, nil
}

// Set parses value according to the key's type, validates the resulting
// settings and persists the key. Unknown keys fail with ErrInvalidInput;
// values producing invalid settings fail with ErrInvalidConfiguration.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %q", domain.ErrInvalidInput, key, value)
		}
		parsed = int64(n)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number: %q", domain.ErrInvalidInput, key, value)
		}
		parsed = f
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidConfiguration, value)
		}
		parsed = string(p)
	default:
		parsed = value
	}

	previous, existed := s.configStore.Get(key)
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	if err := s.Validate(); err != nil {
		// Put the old value back so a bad edit never sticks.
		if existed {
			_ = s.configStore.Set(key, previous)
		} else {
			_ = s.configStore.Set(key, defaultValue(key))
		}
		return err
	}
	return nil
}

// Keys returns every settable key, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns the default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Validate checks that the current settings can work.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return domain.AIProvider(val)
}

// envAPIKey returns the API key from the environment for providers that need one.
func (s *SettingsService) envAPIKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicAPIKey)
	default:
		return ""
	}
}

func defaultModel(models map[domain.AIProvider]string, provider domain.AIProvider) string {
	return models[provider]
}

// defaultValue returns the stored form of a key's default, used to undo
// a rejected first-time Set.
func defaultValue(key string) any {
	d := domain.DefaultSettings()
	switch key {
	case keyChunkSize:
		return int64(d.Chunking.Size)
	case keyChunkOverlap:
		return int64(d.Chunking.Overlap)
	case keyEmbedProvider:
		return string(d.Embedding.Provider)
	case keyEmbedBatchSize:
		return int64(d.Embedding.BatchSize)
	case keyEmbedMaxRetries:
		return int64(d.Embedding.MaxRetries)
	case keyEmbedTimeout:
		return int64(d.Embedding.Timeout / time.Second)
	case keyEmbedRPS:
		return d.Embedding.RequestsPerSecond
	case keyLLMProvider:
		return string(d.LLM.Provider)
	case keyLLMTemperature:
		return d.LLM.Temperature
	case keyLLMMaxTokens:
		return int64(d.LLM.MaxTokens)
	case keyLLMMaxRetries:
		return int64(d.LLM.MaxRetries)
	case keyLLMTimeout:
		return int64(d.LLM.Timeout / time.Second)
	case keyRetrievalTopK:
		return int64(d.Retrieval.TopK)
	case keyRetrievalMargin:
		return int64(d.Retrieval.Margin)
	case keyAnswerMaxContext:
		return int64(d.Answer.MaxContextChars)
	case keyLoggingFormat:
		return d.Logging.Format
	default:
		return ""
	}
}
