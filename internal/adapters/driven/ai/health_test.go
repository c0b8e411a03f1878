package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

type stubEmbedding struct {
	pingErr  error
	deadline bool
}

func (s *stubEmbedding) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

func (s *stubEmbedding) Dimensions() int   { return 3 }
func (s *stubEmbedding) ModelName() string { return "embed-model" }
func (s *stubEmbedding) Close() error      { return nil }

func (s *stubEmbedding) Ping(ctx context.Context) error {
	_, s.deadline = ctx.Deadline()
	return s.pingErr
}

type stubLLM struct {
	pingErr error
}

func (s *stubLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	return "", nil
}

func (s *stubLLM) ModelName() string          { return "chat-model" }
func (s *stubLLM) Ping(context.Context) error { return s.pingErr }
func (s *stubLLM) Close() error               { return nil }

func TestCheck_ReportsEachProvider(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Embedding.Provider = domain.AIProviderOllama
	settings.LLM.Provider = domain.AIProviderAnthropic

	emb := &stubEmbedding{}
	svcs := &Services{Embedding: emb, LLM: &stubLLM{pingErr: errors.New("401")}}

	got := Check(context.Background(), settings, svcs)

	require.Len(t, got, 2)
	assert.Equal(t, "embedding", got[0].Kind)
	assert.Equal(t, domain.AIProviderOllama, got[0].Provider)
	assert.Equal(t, "embed-model", got[0].Model)
	assert.True(t, got[0].OK())
	assert.True(t, emb.deadline, "ping must be time-bounded")

	assert.Equal(t, "llm", got[1].Kind)
	assert.Equal(t, domain.AIProviderAnthropic, got[1].Provider)
	assert.False(t, got[1].OK())
	assert.EqualError(t, got[1].Err, "401")
}

func TestCheck_SkipsMissingLLM(t *testing.T) {
	got := Check(context.Background(), domain.DefaultSettings(), &Services{Embedding: &stubEmbedding{}})

	require.Len(t, got, 1)
	assert.Equal(t, "embedding", got[0].Kind)
}

func TestPing_TimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	err := ping(ctx, pingFunc(func(ctx context.Context) error { return ctx.Err() }))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
