package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driven"
	"github.com/custodia-labs/docuquery/internal/logger"
)

// Prompt defaults used when no PromptStore is configured.
const (
	defaultAnswerSystemPrompt = `You are a helpful assistant that answers questions based on the provided context from documents.

Instructions:
1. Answer the question using ONLY the information from the provided context
2. If the context doesn't contain enough information to answer the question, say:
   "I don't have enough information in the provided documents to answer this question."
3. Be concise and accurate
4. Do not add information that is not in the context

Context from documents:
%s`

	defaultAnswerQuestionPrompt = "Question: %s"
)

// unknownFilename labels chunks whose document metadata is missing.
const unknownFilename = "Unknown"

// countPenalty scales confidence down for thin retrievals: one chunk
// keeps 80% of the top score, many chunks approach 100%.
const countPenalty = 0.2

// AnswerComposer builds a grounding context from retrieved chunks,
// calls the generation capability and derives confidence and sources.
type AnswerComposer struct {
	llm             driven.LLMService
	docs            driven.DocumentStore
	prompts         driven.PromptStore
	maxContextChars int
	chat            driven.ChatOptions
	retry           RetryPolicy
}

// NewAnswerComposer creates a composer. llm may be nil, in which case
// every grounded answer fails with ErrGenerationUnavailable.
func NewAnswerComposer(
	llm driven.LLMService,
	docs driven.DocumentStore,
	llmSettings domain.LLMSettings,
	answerSettings domain.AnswerSettings,
) *AnswerComposer {
	return &AnswerComposer{
		llm:             llm,
		docs:            docs,
		maxContextChars: answerSettings.MaxContextChars,
		chat: driven.ChatOptions{
			MaxTokens:   llmSettings.MaxTokens,
			Temperature: llmSettings.Temperature,
		},
		retry: DefaultRetryPolicy(llmSettings.MaxRetries, llmSettings.Timeout),
	}
}

// SetPromptStore sets the store for user-editable prompt templates.
func (c *AnswerComposer) SetPromptStore(store driven.PromptStore) {
	c.prompts = store
}

// SetRetryPolicy overrides the retry policy. Used by tests to shorten backoff.
func (c *AnswerComposer) SetRetryPolicy(p RetryPolicy) {
	c.retry = p
}

// Compose produces the answer for question grounded on result. An empty
// result returns NoContentAnswer with zero confidence and never calls the
// generator.
func (c *AnswerComposer) Compose(
	ctx context.Context, question string, result domain.RetrievalResult,
) (*domain.Answer, error) {
	logger.Section("Answer Composition")

	answer := &domain.Answer{
		Question:  question,
		Retrieval: result,
		Sources:   []domain.Source{},
	}

	if result.IsEmpty() {
		logger.Debug("No grounding chunks, returning no-content answer")
		answer.Text = domain.NoContentAnswer
		return answer, nil
	}

	if c.llm == nil {
		return nil, fmt.Errorf("%w: no generation provider configured", domain.ErrGenerationUnavailable)
	}

	filenames := c.filenames(ctx, result)
	groundingContext := BuildContext(result.Chunks, filenames, c.maxContextChars)
	logger.Debug("Grounding context: %d characters from %d chunks", len([]rune(groundingContext)), len(result.Chunks))

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: fillPrompt(c.prompt(driven.PromptAnswerSystem), groundingContext)},
		{Role: driven.RoleUser, Content: fillPrompt(c.prompt(driven.PromptAnswerQuestion), question)},
	}

	var text string
	err := withRetry(ctx, c.retry, "generation", func(ctx context.Context) error {
		out, err := c.llm.Chat(ctx, messages, c.chat)
		if err != nil {
			return err
		}
		text = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	answer.Text = text
	answer.Confidence = Confidence(result)
	answer.Sources = BuildSources(result.Chunks, filenames)
	logger.Info("Answer generated, confidence %.2f", answer.Confidence)

	return answer, nil
}

// Confidence derives a score in [0,1] from a retrieval result:
// clamp(top similarity) * (1 - 0.2/n) where n is the chunk count.
// It is 0 for an empty result and monotonic in both inputs.
func Confidence(result domain.RetrievalResult) float64 {
	n := len(result.Chunks)
	if n == 0 {
		return 0
	}
	top := result.TopScore()
	if top <= 0 {
		return 0
	}
	if top > 1 {
		top = 1
	}
	return top * (1 - countPenalty/float64(n))
}

// BuildContext concatenates chunk texts in order, each under a
// "[Source i: filename, Section n]" header, joined by blank lines. The
// total never exceeds maxChars runes: the last chunk that fits partially
// is truncated, and a chunk whose header cannot fit with at least one
// character of text ends the context. maxChars <= 0 disables the budget.
func BuildContext(chunks []domain.ScoredChunk, filenames map[string]string, maxChars int) string {
	var b strings.Builder
	used := 0

	for i, sc := range chunks {
		sep := ""
		if i > 0 {
			sep = "\n\n"
		}
		header := "[Source " + strconv.Itoa(i+1) + ": " + filenameFor(filenames, sc.Chunk.DocumentID) +
			", Section " + strconv.Itoa(sc.Chunk.Position+1) + "]\n"
		text := []rune(sc.Chunk.Content)

		if maxChars > 0 {
			overhead := len([]rune(sep)) + len([]rune(header))
			remaining := maxChars - used - overhead
			if remaining <= 0 {
				break
			}
			if len(text) > remaining {
				text = text[:remaining]
			}
		}

		b.WriteString(sep)
		b.WriteString(header)
		b.WriteString(string(text))
		used += len([]rune(sep)) + len([]rune(header)) + len(text)

		if maxChars > 0 && used >= maxChars {
			break
		}
	}

	return b.String()
}

// BuildSources returns one Source per chunk with a text preview.
func BuildSources(chunks []domain.ScoredChunk, filenames map[string]string) []domain.Source {
	sources := make([]domain.Source, 0, len(chunks))
	for _, sc := range chunks {
		sources = append(sources, domain.Source{
			DocumentID: sc.Chunk.DocumentID,
			Filename:   filenameFor(filenames, sc.Chunk.DocumentID),
			ChunkID:    sc.Chunk.ID,
			Position:   sc.Chunk.Position,
			Score:      sc.Score,
			Preview:    preview(sc.Chunk.Content),
		})
	}
	return sources
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= domain.PreviewLength {
		return text
	}
	return string(runes[:domain.PreviewLength]) + "..."
}

func filenameFor(filenames map[string]string, documentID string) string {
	if name := filenames[documentID]; name != "" {
		return name
	}
	return unknownFilename
}

// filenames resolves the display filename of every document in result.
// Lookup failures fall back to unknownFilename.
func (c *AnswerComposer) filenames(ctx context.Context, result domain.RetrievalResult) map[string]string {
	names := make(map[string]string)
	if c.docs == nil {
		return names
	}
	for _, sc := range result.Chunks {
		id := sc.Chunk.DocumentID
		if _, done := names[id]; done {
			continue
		}
		doc, err := c.docs.GetDocument(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Failed to look up document %s: %v", id, err)
			}
			names[id] = ""
			continue
		}
		names[id] = doc.Filename
	}
	return names
}

func (c *AnswerComposer) prompt(name string) string {
	if c.prompts != nil {
		if p, err := c.prompts.Load(name); err == nil && p != "" {
			return p
		}
	}
	if name == driven.PromptAnswerSystem {
		return defaultAnswerSystemPrompt
	}
	return defaultAnswerQuestionPrompt
}

// fillPrompt substitutes value for the first %s in template, appending
// it when the template has no placeholder. Other % sequences are kept.
func fillPrompt(template, value string) string {
	if !strings.Contains(template, "%s") {
		return template + "\n\n" + value
	}
	return strings.Replace(template, "%s", value, 1)
}
