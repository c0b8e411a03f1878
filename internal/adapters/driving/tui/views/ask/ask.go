// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

// DefaultTopK is the number of chunks requested per question.
const DefaultTopK = 3

// View is the ask view: a question input, the generated answer, the
// sources it was grounded on and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.SourceList
	statusbar *status.Bar

	queryService driving.QueryService
	ctx          context.Context
	topK         int

	answer     *domain.Answer
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a question, false = browsing sources
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, queryService driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQuestionInput(s),
		list:         list.NewSourceList(s),
		statusbar:    status.NewBar(s, km),
		queryService: queryService,
		ctx:          context.Background(),
		topK:         DefaultTopK,
		width:        80,
		height:       24,
		focusInput:   true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithTopK sets how many chunks each question is grounded on.
func (v *View) WithTopK(k int) *View {
	if k > 0 {
		v.topK = k
	}
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			question := strings.TrimSpace(v.input.Value())
			if question == "" {
				return v, nil
			}
			v.err = nil
			v.statusbar.SetState(status.StateThinking)
			v.focusInput = false
			v.input.Blur()
			return v, v.ask(question)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case "up", "k":
		v.list.MoveUp()
	case "down", "j":
		v.list.MoveDown()
	case "n":
		v.newQuestion()
		return v, v.input.Focus()
	case "enter":
		src := v.list.SelectedSource()
		if src == nil {
			return v, nil
		}
		doc := domain.Document{ID: src.DocumentID, Filename: src.Filename}
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: doc, Back: messages.ViewAsk}
		}
	}

	return v, nil
}

// ask returns a command that answers the question.
func (v *View) ask(question string) tea.Cmd {
	ctx := v.ctx
	topK := v.topK
	svc := v.queryService
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		answer, err := svc.Query(ctx, question, topK)
		return messages.AnswerReceived{Answer: answer, Err: err}
	}
}

// handleAnswer stores a completed answer or error.
func (v *View) handleAnswer(msg messages.AnswerReceived) {
	if msg.Err != nil {
		v.setError(msg.Err)
		v.focusInput = true
		v.input.Focus()
		return
	}

	v.err = nil
	v.answer = msg.Answer
	if msg.Answer == nil {
		v.list.SetSources(nil)
		v.statusbar.Clear()
		return
	}
	v.list.SetSources(msg.Answer.Sources)
	v.statusbar.SetAnswer(msg.Answer.Confidence, len(msg.Answer.Sources))
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// newQuestion clears the answer and returns to input mode.
func (v *View) newQuestion() {
	v.focusInput = true
	v.input.SetValue("")
	v.answer = nil
	v.list.SetSources(nil)
	v.err = nil
	v.statusbar.Clear()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("docuquery"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.statusbar.State() == status.StateThinking {
		sections = append(sections, v.styles.Muted.Render("Retrieving context and composing an answer..."), "")
	}

	if v.answer != nil {
		answerWidth := v.width - 4
		if answerWidth < 20 {
			answerWidth = 20
		}
		sections = append(sections,
			v.styles.Answer.Width(answerWidth).Render(v.answer.Text),
			"",
			v.list.View(),
		)
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	// Reserve space for header, input, answer and status
	v.list.SetDimensions(width, height/2)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the current question text.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the question text.
func (v *View) SetQuestion(question string) {
	v.input.SetValue(question)
}

// Answer returns the last answer, or nil.
func (v *View) Answer() *domain.Answer {
	return v.answer
}

// SelectedIndex returns the index of the selected source.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset resets the view to input mode with no answer.
func (v *View) Reset() {
	v.newQuestion()
	v.input.Focus()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
