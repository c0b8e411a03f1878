package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [question]", queryCmd.Use)
}

func TestQueryCmd_RequiresQuestion(t *testing.T) {
	_, err := execute("query")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestQueryCmd_ErrorsWithoutService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	queryService = nil

	_, err := execute("query", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query service not configured")
}

func TestQueryCmd_ReportsStartupError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	queryService = nil
	startupErr = errors.New("embedding provider openai requires an API key")

	_, err := execute("query", "anything")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "query service unavailable")
	assert.Contains(t, err.Error(), "requires an API key")
}

func TestQueryCmd_PrintsAnswerWithSources(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	var gotQuestion string
	var gotTopK int
	queryService = &mockQueryService{
		QueryFunc: func(_ context.Context, q string, k int) (*domain.Answer, error) {
			gotQuestion, gotTopK = q, k
			return testAnswer(q), nil
		},
	}

	out, err := execute("query", "how", "long", "for", "returns?")

	require.NoError(t, err)
	assert.Equal(t, "how long for returns?", gotQuestion)
	assert.Equal(t, domain.DefaultSettings().Retrieval.TopK, gotTopK)
	assert.Contains(t, out, "Returns are accepted within 30 days [Source 1].")
	assert.Contains(t, out, "[Source 1] returns.md, Section 1 (0.91)")
	assert.Contains(t, out, "Returns are accepted within 30 days.")
	assert.Contains(t, out, "Confidence: 91%")
}

func TestQueryCmd_TopKFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	var gotTopK int
	queryService = &mockQueryService{
		QueryFunc: func(_ context.Context, q string, k int) (*domain.Answer, error) {
			gotTopK = k
			return testAnswer(q), nil
		},
	}

	_, err := execute("query", "-k", "7", "question")

	require.NoError(t, err)
	assert.Equal(t, 7, gotTopK)
}

func TestQueryCmd_NoContentAnswer(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	queryService = &mockQueryService{
		QueryFunc: func(_ context.Context, q string, _ int) (*domain.Answer, error) {
			return &domain.Answer{Question: q, Text: domain.NoContentAnswer}, nil
		},
	}

	out, err := execute("query", "unknown topic")

	require.NoError(t, err)
	assert.Contains(t, out, domain.NoContentAnswer)
	assert.NotContains(t, out, "Sources:")
}

func TestQueryCmd_JSON(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("query", "--json", "returns?")
	require.NoError(t, err)

	var got answerOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "returns?", got.Question)
	assert.InDelta(t, 0.91, got.Confidence, 1e-9)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "doc-1", got.Sources[0].DocumentID)
	assert.Equal(t, "c1", got.Sources[0].ChunkID)
}

func TestQueryCmd_RetrieveOnly(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	queryService = &mockQueryService{
		QueryFunc: func(context.Context, string, int) (*domain.Answer, error) {
			t.Fatal("Query must not be called with --retrieve-only")
			return nil, nil
		},
	}

	out, err := execute("query", "--retrieve-only", "returns?")

	require.NoError(t, err)
	assert.Contains(t, out, "[1] doc-1 #0 (0.910)")
	assert.Contains(t, out, "Returns are accepted within 30 days.")
}

func TestQueryCmd_RetrieveOnlyEmpty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	queryService = &mockQueryService{
		RetrieveFunc: func(_ context.Context, q string, _ int) (domain.RetrievalResult, error) {
			return domain.RetrievalResult{Query: q}, nil
		},
	}

	out, err := execute("query", "--retrieve-only", "returns?")

	require.NoError(t, err)
	assert.Contains(t, out, "No matching chunks.")
}

func TestQueryCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	queryService = &mockQueryService{
		QueryFunc: func(context.Context, string, int) (*domain.Answer, error) {
			return nil, domain.ErrEmbeddingUnavailable
		},
	}

	_, err := execute("query", "returns?")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "query failed")
}

func TestConfiguredTopK(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	settings := newMockSettingsService()
	settings.settings.Retrieval.TopK = 9
	settingsService = settings
	assert.Equal(t, 9, configuredTopK())

	settingsService = nil
	assert.Equal(t, defaultTopK, configuredTopK())
}

func TestQueryCmd_TopKFromSettings(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settings := newMockSettingsService()
	settings.settings.Retrieval.TopK = 9
	settingsService = settings

	var gotTopK int
	queryService = &mockQueryService{
		QueryFunc: func(_ context.Context, q string, k int) (*domain.Answer, error) {
			gotTopK = k
			return testAnswer(q), nil
		},
	}

	_, err := execute("query", "question")

	require.NoError(t, err)
	assert.Equal(t, 9, gotTopK)
}

func TestQueryCmd_NonPositiveTopKRejected(t *testing.T) {
	for _, k := range []string{"0", "-2"} {
		t.Run(k, func(t *testing.T) {
			cleanup := setupTestServices()
			defer cleanup()

			var gotTopK int
			queryService = &mockQueryService{
				QueryFunc: func(_ context.Context, _ string, topK int) (*domain.Answer, error) {
					gotTopK = topK
					if topK <= 0 {
						return nil, domain.ErrInvalidQuery
					}
					return &domain.Answer{}, nil
				},
			}

			_, err := execute("query", "what", "-k", k)

			assert.ErrorIs(t, err, domain.ErrInvalidQuery)
			assert.Equal(t, k, strconv.Itoa(gotTopK))
		})
	}
}
