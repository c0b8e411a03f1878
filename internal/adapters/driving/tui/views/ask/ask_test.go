package ask

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// MockQueryService implements driving.QueryService for testing.
type MockQueryService struct {
	QueryFunc func(ctx context.Context, question string, topK int) (*domain.Answer, error)
}

func (m *MockQueryService) Query(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, question, topK)
	}
	return &domain.Answer{Question: question, Text: domain.NoContentAnswer}, nil
}

func (m *MockQueryService) Retrieve(_ context.Context, _ string, _ int) (domain.RetrievalResult, error) {
	return domain.RetrievalResult{}, nil
}

func testAnswer() *domain.Answer {
	return &domain.Answer{
		Question:   "what is the refund window?",
		Text:       "Refunds are accepted within 30 days [Source 1].",
		Confidence: 0.82,
		Sources: []domain.Source{
			{DocumentID: "doc-1", Filename: "policy.md", ChunkID: "c-1", Position: 0, Score: 0.82, Preview: "Refunds are accepted"},
			{DocumentID: "doc-2", Filename: "faq.txt", ChunkID: "c-7", Position: 3, Score: 0.61, Preview: "Contact support"},
		},
	}
}

func readyView(svc *MockQueryService) *View {
	v := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap(), svc)
	v.SetDimensions(100, 40)
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(styles.DefaultStyles(), keymap.DefaultKeyMap(), &MockQueryService{})

	require.NotNil(t, v)
	assert.False(t, v.Ready())
	assert.True(t, v.InputFocused())
	assert.Nil(t, v.Answer())
	assert.Equal(t, DefaultTopK, v.topK)
}

func TestNewView_NilStylesAndKeymap(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.NotNil(t, v.styles)
	assert.NotNil(t, v.keymap)
}

func TestView_WithTopK(t *testing.T) {
	v := NewView(nil, nil, nil).WithTopK(7)
	assert.Equal(t, 7, v.topK)

	v.WithTopK(0)
	assert.Equal(t, 7, v.topK)
}

func TestView_Update_WindowSize(t *testing.T) {
	v := NewView(nil, nil, nil)

	v, cmd := v.Update(tea.WindowSizeMsg{Width: 120, Height: 50})

	assert.Nil(t, cmd)
	assert.True(t, v.Ready())
	assert.Equal(t, 120, v.width)
	assert.Equal(t, 50, v.height)
}

func TestView_Update_KeyEnter_AsksQuestion(t *testing.T) {
	var gotQuestion string
	var gotTopK int
	svc := &MockQueryService{
		QueryFunc: func(_ context.Context, question string, topK int) (*domain.Answer, error) {
			gotQuestion = question
			gotTopK = topK
			return testAnswer(), nil
		},
	}
	v := readyView(svc)
	v.SetQuestion("  what is the refund window?  ")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, v.InputFocused())

	msg := cmd()
	answered, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	require.NoError(t, answered.Err)
	assert.Equal(t, "what is the refund window?", gotQuestion)
	assert.Equal(t, DefaultTopK, gotTopK)

	v, _ = v.Update(answered)
	require.NotNil(t, v.Answer())
	assert.Equal(t, 2, v.list.Count())
	assert.InDelta(t, 0.82, v.statusbar.Confidence(), 1e-9)
}

func TestView_Update_KeyEnter_EmptyQuestion(t *testing.T) {
	v := readyView(&MockQueryService{})
	v.SetQuestion("   ")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, v.InputFocused())
}

func TestView_Update_KeyEsc_BackToMenu(t *testing.T) {
	v := readyView(&MockQueryService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)

	msg := cmd()
	changed, ok := msg.(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewMenu, changed.View)
}

func TestView_Update_AnswerError(t *testing.T) {
	v := readyView(&MockQueryService{})
	v.focusInput = false

	v, _ = v.Update(messages.AnswerReceived{Err: errors.New("llm unavailable")})

	require.Error(t, v.Err())
	assert.True(t, v.InputFocused())
	assert.Contains(t, v.View(), "llm unavailable")
}

func TestView_Update_ErrorOccurred(t *testing.T) {
	v := readyView(&MockQueryService{})

	v, _ = v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
}

func TestView_Ask_NoService(t *testing.T) {
	v := readyView(nil)
	v.queryService = nil
	v.SetQuestion("anything")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg := cmd()
	errMsg, ok := msg.(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, errMsg.Err, ErrNoQueryService)
}

func TestView_Ask_ServiceError(t *testing.T) {
	svc := &MockQueryService{
		QueryFunc: func(context.Context, string, int) (*domain.Answer, error) {
			return nil, domain.ErrInvalidQuery
		},
	}
	v := readyView(svc)
	v.SetQuestion("q")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	msg := cmd()

	answered, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	assert.ErrorIs(t, answered.Err, domain.ErrInvalidQuery)
}

func TestView_SourceNavigation(t *testing.T) {
	v := readyView(&MockQueryService{})
	v.focusInput = false
	v, _ = v.Update(messages.AnswerReceived{Answer: testAnswer()})

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, v.SelectedIndex())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.SelectedIndex())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 0, v.SelectedIndex())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.SelectedIndex())
}

func TestView_Update_KeyEnter_OpensSource(t *testing.T) {
	v := readyView(&MockQueryService{})
	v.focusInput = false
	v, _ = v.Update(messages.AnswerReceived{Answer: testAnswer()})
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg := cmd()
	selected, ok := msg.(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "doc-2", selected.Document.ID)
	assert.Equal(t, "faq.txt", selected.Document.Filename)
	assert.Equal(t, messages.ViewAsk, selected.Back)
}

func TestView_Update_KeyEnter_NoSources(t *testing.T) {
	v := readyView(&MockQueryService{})
	v.focusInput = false
	v, _ = v.Update(messages.AnswerReceived{Answer: &domain.Answer{Text: domain.NoContentAnswer}})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
}

func TestView_Update_KeyN_NewQuestion(t *testing.T) {
	v := readyView(&MockQueryService{})
	v.SetQuestion("old question")
	v.focusInput = false
	v, _ = v.Update(messages.AnswerReceived{Answer: testAnswer()})

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})

	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Question())
	assert.Nil(t, v.Answer())
	assert.Equal(t, 0, v.list.Count())
}

func TestView_View_NotReady(t *testing.T) {
	v := NewView(nil, nil, nil)
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_View_WithAnswer(t *testing.T) {
	v := readyView(&MockQueryService{})
	v, _ = v.Update(messages.AnswerReceived{Answer: testAnswer()})

	out := v.View()

	assert.Contains(t, out, "Refunds are accepted within 30 days")
	assert.Contains(t, out, "policy.md")
	assert.Contains(t, out, "faq.txt")
	assert.Contains(t, out, "Confidence 82%")
}

func TestView_View_NoContentAnswer(t *testing.T) {
	v := readyView(&MockQueryService{})
	v, _ = v.Update(messages.AnswerReceived{Answer: &domain.Answer{Text: domain.NoContentAnswer}})

	assert.Contains(t, v.View(), domain.NoContentAnswer)
}

func TestView_Reset(t *testing.T) {
	v := readyView(&MockQueryService{})
	v.focusInput = false
	v.SetQuestion("q")
	v, _ = v.Update(messages.AnswerReceived{Answer: testAnswer()})

	v.Reset()

	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Question())
	assert.Nil(t, v.Answer())
	assert.NoError(t, v.Err())
}
