package input

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/styles"
)

func TestNewQuestionInput(t *testing.T) {
	s := styles.DefaultStyles()
	input := NewQuestionInput(s)

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())
}

func TestNewQuestionInput_NilStyles(t *testing.T) {
	input := NewQuestionInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestQuestionInput_Init(t *testing.T) {
	input := NewQuestionInput(nil)

	assert.NotNil(t, input.Init())
}

func TestQuestionInput_Update(t *testing.T) {
	input := NewQuestionInput(nil)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("why")}
	updated, _ := input.Update(msg)

	assert.Equal(t, input, updated)
	assert.Equal(t, "why", input.Value())
}

func TestQuestionInput_View(t *testing.T) {
	input := NewQuestionInput(nil)

	assert.Contains(t, input.View(), "Ask:")
}

func TestQuestionInput_CharLimit(t *testing.T) {
	input := NewQuestionInput(nil)

	input.SetValue(strings.Repeat("a", MaxQuestionLength+50))

	assert.Len(t, input.Value(), MaxQuestionLength)
}

func TestQuestionInput_FocusBlur(t *testing.T) {
	input := NewQuestionInput(nil)

	input.Blur()
	assert.False(t, input.Focused())

	input.Focus()
	assert.True(t, input.Focused())
}

func TestQuestionInput_SetWidth(t *testing.T) {
	tests := []struct {
		name      string
		width     int
		wantInner int
	}{
		{"wide", 100, 90},
		{"narrow clamps", 15, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := NewQuestionInput(nil)
			input.SetWidth(tt.width)

			assert.Equal(t, tt.width, input.Width())
			assert.Equal(t, tt.wantInner, input.textinput.Width)
		})
	}
}

func TestQuestionInput_Reset(t *testing.T) {
	input := NewQuestionInput(nil)
	input.SetValue("what is chunk overlap?")

	input.Reset()

	assert.Equal(t, "", input.Value())
}
