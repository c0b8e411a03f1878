// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/styles"
)

// Item represents a single menu option.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool // If true, selecting this item quits the app
}

// DefaultItems returns the top-level menu entries.
func DefaultItems() []Item {
	return []Item{
		{Label: "Ask", Description: "Ask a question about your documents", View: messages.ViewAsk},
		{Label: "Documents", Description: "Browse, read and delete ingested documents", View: messages.ViewDocuments},
		{Label: "Help", Description: "Keyboard shortcuts", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View represents the main menu view.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		items:  DefaultItems(),
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil

		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
			return v, nil

		case "enter":
			item := v.items[v.selected]
			if item.Quit {
				return v, tea.Quit
			}
			return v, func() tea.Msg {
				return messages.ViewChanged{View: item.View}
			}

		case "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	lines := make([]string, 0, len(v.items)+6)
	lines = append(lines,
		v.styles.Title.Render("docuquery"),
		v.styles.Subtitle.Render("Answers from your own documents"),
		"",
	)

	for i, item := range v.items {
		if i == v.selected {
			line := v.styles.Selected.Render("> " + item.Label)
			if item.Description != "" {
				line += "  " + v.styles.Muted.Render(item.Description)
			}
			lines = append(lines, line)
			continue
		}
		lines = append(lines, v.styles.Normal.Render("  "+item.Label))
	}

	lines = append(lines, "", v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu entries.
func (v *View) Items() []Item {
	return v.items
}
