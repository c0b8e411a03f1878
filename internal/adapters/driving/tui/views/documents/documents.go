// Package documents provides the documents list view component for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

// View is the documents list view. Deleting requires pressing d twice on
// the same document.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	documents     []domain.Document
	stats         *domain.IndexStats
	selected      int
	width         int
	height        int
	ready         bool
	err           error
	notice        string
	loading       bool
	confirmDelete string
	scrollOffset  int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		documents:       []domain.Document{},
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads documents and index stats.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.err = nil
	v.notice = ""
	v.confirmDelete = ""
	return tea.Batch(v.loadDocuments(), v.loadStats())
}

// loadDocuments returns a command that lists documents.
func (v *View) loadDocuments() tea.Cmd {
	ctx := v.ctx
	svc := v.documentService
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// loadStats returns a command that fetches index stats.
func (v *View) loadStats() tea.Cmd {
	ctx := v.ctx
	svc := v.documentService
	return func() tea.Msg {
		if svc == nil {
			return messages.StatsLoaded{Err: ErrNoDocumentService}
		}
		stats, err := svc.Stats(ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// deleteDocument returns a command that deletes a document.
func (v *View) deleteDocument(docID string) tea.Cmd {
	ctx := v.ctx
	svc := v.documentService
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: docID, Err: ErrNoDocumentService}
		}
		removed, err := svc.Delete(ctx, docID)
		return messages.DocumentDeleted{DocumentID: docID, ChunksRemoved: removed, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.documents = msg.Documents
		v.err = nil
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.StatsLoaded:
		if msg.Err == nil {
			v.stats = msg.Stats
		}
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Deleted %s (%d chunks removed)", msg.DocumentID, msg.ChunksRemoved)
		return v, tea.Batch(v.loadDocuments(), v.loadStats())

	case messages.ErrorOccurred:
		v.loading = false
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	if key != "d" {
		v.confirmDelete = ""
	}

	switch key {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		doc := v.SelectedDocument()
		if doc == nil {
			return v, nil
		}
		selected := *doc
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: selected, Back: messages.ViewDocuments}
		}
	case "d":
		doc := v.SelectedDocument()
		if doc == nil {
			return v, nil
		}
		if v.confirmDelete != doc.ID {
			v.confirmDelete = doc.ID
			return v, nil
		}
		v.confirmDelete = ""
		return v, v.deleteDocument(doc.ID)
	case "r":
		v.loading = true
		v.notice = ""
		return v, tea.Batch(v.loadDocuments(), v.loadStats())
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Reserve lines for title, stats, notices and help
	reserved := 10
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.documents))))
	b.WriteString("\n")
	if v.stats != nil {
		b.WriteString(v.styles.Muted.Render(v.renderStats()))
	}
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}
	if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	if len(v.documents) == 0 {
		b.WriteString(v.styles.Muted.Render("No documents ingested yet. Use `docuquery ingest <path>` to add some."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.documents)),
			len(v.documents))))
	}

	if v.confirmDelete != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Warning.Render("Press d again to delete " + v.confirmDelete))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) renderStats() string {
	s := v.stats
	return fmt.Sprintf("%d processed | %d failed | %d chunks | %d live vectors | %d tombstoned",
		s.Documents[domain.StatusProcessed],
		s.Documents[domain.StatusFailed],
		s.Chunks,
		s.LiveVectors,
		s.TombstonedVectors)
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := doc.Filename
	if name == "" {
		name = doc.ID
	}

	maxNameLen := v.width/2 - 4
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen-3]) + "..."
	}

	detail := fmt.Sprintf("%-10s %4d chunks", doc.Status, doc.ChunkCount())

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, detail))
	}

	statusStyle := v.styles.Muted
	if doc.Status == domain.StatusFailed {
		statusStyle = v.styles.Error
	}
	return v.styles.Normal.Render(indicator) +
		v.styles.Normal.Render(fmt.Sprintf("%-*s  ", maxNameLen, name)) +
		statusStyle.Render(detail)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] view content  [d] delete  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// Stats returns the last loaded index stats, or nil.
func (v *View) Stats() *domain.IndexStats {
	return v.stats
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// PendingDelete returns the ID awaiting delete confirmation, if any.
func (v *View) PendingDelete() string {
	return v.confirmDelete
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
