// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// SourceList displays the chunks an answer was grounded on.
type SourceList struct {
	sources  []domain.Source
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.sources)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))), "")

	// Each source takes two lines
	visibleCount := (l.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(l.sources) {
		end = len(l.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSource(i, &l.sources[i]))
	}

	return strings.Join(lines, "\n")
}

// renderSource formats one source as "[Source i] filename, Section n  score"
// followed by its preview.
func (l *SourceList) renderSource(index int, src *domain.Source) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	label := fmt.Sprintf("[Source %d] %s, Section %d", index+1, src.Filename, src.Position+1)
	maxLabelLen := l.width - 12
	if maxLabelLen < 10 {
		maxLabelLen = 10
	}
	label = truncate(label, maxLabelLen)

	score := fmt.Sprintf("%.2f", src.Score)

	var labelLine string
	if index == l.selected {
		labelLine = l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxLabelLen, label, score))
	} else {
		labelLine = l.styles.Citation.Render(fmt.Sprintf("%s%-*s  ", indicator, maxLabelLen, label)) +
			l.styles.Score(src.Score).Render(score)
	}

	maxPreviewLen := l.width - 6
	if maxPreviewLen < 20 {
		maxPreviewLen = 20
	}
	preview := strings.Join(strings.Fields(src.Preview), " ")
	previewLine := l.styles.Muted.Render("    " + truncate(preview, maxPreviewLen))

	return labelLine + "\n" + previewLine
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// SetSources replaces the list contents and resets the selection.
func (l *SourceList) SetSources(sources []domain.Source) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the current sources.
func (l *SourceList) Sources() []domain.Source {
	return l.sources
}

// Selected returns the index of the selected source.
func (l *SourceList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *SourceList) SetSelected(index int) {
	if index >= 0 && index < len(l.sources) {
		l.selected = index
	}
}

// SelectedSource returns the currently selected source, or nil if none.
func (l *SourceList) SelectedSource() *domain.Source {
	if l.selected < 0 || l.selected >= len(l.sources) {
		return nil
	}
	return &l.sources[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}

// IsEmpty returns whether the list is empty.
func (l *SourceList) IsEmpty() bool {
	return len(l.sources) == 0
}
