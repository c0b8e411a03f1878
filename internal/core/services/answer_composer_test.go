package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
)

func scored(docID string, position int, content string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:         docID + "-" + string(rune('0'+position)),
			DocumentID: docID,
			Position:   position,
			Content:    content,
		},
		Score: score,
	}
}

func newTestComposer(llm driven.LLMService, docs driven.DocumentStore, maxContext int) *AnswerComposer {
	settings := domain.DefaultSettings()
	settings.Answer.MaxContextChars = maxContext
	c := NewAnswerComposer(llm, docs, settings.LLM, settings.Answer)
	c.SetRetryPolicy(fastRetry)
	return c
}

func TestAnswerComposer_EmptyResultSkipsGeneration(t *testing.T) {
	llm := &mockLLM{reply: "should not be used"}
	c := newTestComposer(llm, nil, 1000)

	answer, err := c.Compose(context.Background(), "what?", domain.RetrievalResult{Query: "what?"})

	require.NoError(t, err)
	assert.Equal(t, domain.NoContentAnswer, answer.Text)
	assert.Zero(t, answer.Confidence)
	assert.Empty(t, answer.Sources)
	assert.Zero(t, llm.Calls())
}

func TestAnswerComposer_EmptyResultWithoutLLM(t *testing.T) {
	c := newTestComposer(nil, nil, 1000)

	answer, err := c.Compose(context.Background(), "what?", domain.RetrievalResult{})

	require.NoError(t, err)
	assert.Equal(t, domain.NoContentAnswer, answer.Text)
}

func TestAnswerComposer_NoLLMConfigured(t *testing.T) {
	c := newTestComposer(nil, nil, 1000)
	result := domain.RetrievalResult{Chunks: []domain.ScoredChunk{scored("d", 0, "text", 0.9)}}

	_, err := c.Compose(context.Background(), "q", result)

	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestAnswerComposer_Compose(t *testing.T) {
	p := newPipeline(t, 100, 10)
	ingestText(t, p, "doc-1", "guide.md", "alpha facts")
	ingestText(t, p, "doc-2", "notes.txt", "more alpha beta")

	result, err := p.retriever.Retrieve(context.Background(), "alpha", 3)
	require.NoError(t, err)

	answer, err := p.composer.Compose(context.Background(), "alpha", result)
	require.NoError(t, err)

	assert.Equal(t, "generated answer", answer.Text)
	assert.Equal(t, "alpha", answer.Question)
	assert.Equal(t, result, answer.Retrieval)
	assert.Greater(t, answer.Confidence, 0.0)
	assert.LessOrEqual(t, answer.Confidence, 1.0)

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "guide.md", answer.Sources[0].Filename)
	assert.Equal(t, "doc-1", answer.Sources[0].DocumentID)
	assert.Equal(t, "notes.txt", answer.Sources[1].Filename)

	require.Equal(t, 1, p.llm.Calls())
	messages := p.llm.requests[0]
	require.Len(t, messages, 2)
	assert.Equal(t, driven.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "[Source 1: guide.md, Section 1]\nalpha facts")
	assert.Contains(t, messages[0].Content, "[Source 2: notes.txt, Section 1]\nmore alpha beta")
	assert.Contains(t, messages[0].Content, "I don't have enough information in the provided documents")
	assert.Equal(t, driven.RoleUser, messages[1].Role)
	assert.Equal(t, "Question: alpha", messages[1].Content)

	assert.Equal(t, 1024, p.llm.options[0].MaxTokens)
	assert.InDelta(t, 0.7, p.llm.options[0].Temperature, 1e-9)
}

func TestAnswerComposer_GenerationFailure(t *testing.T) {
	llm := &mockLLM{err: errProviderDown}
	c := newTestComposer(llm, nil, 1000)
	result := domain.RetrievalResult{Chunks: []domain.ScoredChunk{scored("d", 0, "text", 0.9)}}

	answer, err := c.Compose(context.Background(), "q", result)

	assert.Nil(t, answer)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.ErrorIs(t, err, errProviderDown)
	assert.Equal(t, fastRetry.MaxRetries+1, llm.Calls())
}

func TestAnswerComposer_GenerationRetried(t *testing.T) {
	llm := &mockLLM{reply: "  ok  ", failTimes: 2}
	c := newTestComposer(llm, nil, 1000)
	result := domain.RetrievalResult{Chunks: []domain.ScoredChunk{scored("d", 0, "text", 0.9)}}

	answer, err := c.Compose(context.Background(), "q", result)

	require.NoError(t, err)
	assert.Equal(t, "ok", answer.Text)
	assert.Equal(t, 3, llm.Calls())
}

func TestAnswerComposer_CustomPrompts(t *testing.T) {
	llm := &mockLLM{reply: "ok"}
	c := newTestComposer(llm, nil, 1000)
	c.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptAnswerSystem:   "CTX 100% <%s>",
		driven.PromptAnswerQuestion: "Q=%s",
	}})
	result := domain.RetrievalResult{Chunks: []domain.ScoredChunk{scored("d", 2, "body", 0.5)}}

	_, err := c.Compose(context.Background(), "why", result)
	require.NoError(t, err)

	messages := llm.requests[0]
	assert.Equal(t, "CTX 100% <[Source 1: Unknown, Section 3]\nbody>", messages[0].Content)
	assert.Equal(t, "Q=why", messages[1].Content)
}

func TestAnswerComposer_PromptWithoutPlaceholder(t *testing.T) {
	assert.Equal(t, "Answer briefly.\n\nctx", fillPrompt("Answer briefly.", "ctx"))
	assert.Equal(t, "a ctx b %s", fillPrompt("a %s b %s", "ctx"))
}

func TestConfidence(t *testing.T) {
	one := domain.RetrievalResult{Chunks: []domain.ScoredChunk{scored("d", 0, "x", 0.9)}}
	three := domain.RetrievalResult{Chunks: []domain.ScoredChunk{
		scored("d", 0, "x", 0.9), scored("d", 1, "y", 0.5), scored("d", 2, "z", 0.1),
	}}
	negative := domain.RetrievalResult{Chunks: []domain.ScoredChunk{scored("d", 0, "x", -0.4)}}
	over := domain.RetrievalResult{Chunks: []domain.ScoredChunk{scored("d", 0, "x", 1.0000001)}}

	assert.Zero(t, Confidence(domain.RetrievalResult{}))
	assert.InDelta(t, 0.9*0.8, Confidence(one), 1e-9)
	assert.Greater(t, Confidence(three), Confidence(one), "more chunks never lowers confidence")
	assert.Zero(t, Confidence(negative))
	assert.LessOrEqual(t, Confidence(over), 1.0)

	lower := domain.RetrievalResult{Chunks: []domain.ScoredChunk{scored("d", 0, "x", 0.3)}}
	assert.Less(t, Confidence(lower), Confidence(one), "higher top score never lowers confidence")
}

func TestBuildContext(t *testing.T) {
	chunks := []domain.ScoredChunk{
		scored("a", 0, "first text", 0.9),
		scored("b", 4, "second text", 0.8),
	}
	names := map[string]string{"a": "a.txt", "b": "b.pdf"}

	t.Run("fits", func(t *testing.T) {
		got := BuildContext(chunks, names, 1000)
		assert.Equal(t, "[Source 1: a.txt, Section 1]\nfirst text\n\n[Source 2: b.pdf, Section 5]\nsecond text", got)
	})

	t.Run("no budget", func(t *testing.T) {
		assert.Equal(t, BuildContext(chunks, names, 1000), BuildContext(chunks, names, 0))
	})

	t.Run("truncates last chunk", func(t *testing.T) {
		first := "[Source 1: a.txt, Section 1]\nfirst text"
		header := "\n\n[Source 2: b.pdf, Section 5]\n"
		budget := len(first) + len(header) + 6

		got := BuildContext(chunks, names, budget)
		assert.Equal(t, first+header+"second", got)
		assert.Len(t, []rune(got), budget)
	})

	t.Run("drops chunk whose header does not fit", func(t *testing.T) {
		first := "[Source 1: a.txt, Section 1]\nfirst text"
		got := BuildContext(chunks, names, len(first)+5)
		assert.Equal(t, first, got)
	})

	t.Run("truncates first chunk", func(t *testing.T) {
		header := "[Source 1: a.txt, Section 1]\n"
		got := BuildContext(chunks, names, len(header)+3)
		assert.Equal(t, header+"fir", got)
	})

	t.Run("counts runes", func(t *testing.T) {
		uni := []domain.ScoredChunk{scored("a", 0, "héllo wörld", 0.9)}
		header := "[Source 1: a.txt, Section 1]\n"
		got := BuildContext(uni, names, len(header)+4)
		assert.Equal(t, header+"héll", got)
	})

	t.Run("unknown filename", func(t *testing.T) {
		got := BuildContext(chunks[:1], nil, 0)
		assert.True(t, strings.HasPrefix(got, "[Source 1: Unknown, Section 1]"))
	})
}

func TestBuildSources_Preview(t *testing.T) {
	long := strings.Repeat("é", domain.PreviewLength+50)
	chunks := []domain.ScoredChunk{
		scored("a", 0, "short", 0.9),
		scored("a", 1, long, 0.7),
	}

	sources := BuildSources(chunks, map[string]string{"a": "a.txt"})

	require.Len(t, sources, 2)
	assert.Equal(t, "short", sources[0].Preview)
	assert.Equal(t, 0.9, sources[0].Score)
	assert.Equal(t, "a-1", sources[1].ChunkID)
	assert.Equal(t, 1, sources[1].Position)
	assert.Equal(t, strings.Repeat("é", domain.PreviewLength)+"...", sources[1].Preview)
}
