// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// QuestionAsked is a command to answer a question.
type QuestionAsked struct {
	Question string
	TopK     int
}

// AnswerReceived carries a composed answer back to the model.
type AnswerReceived struct {
	Answer *domain.Answer
	Err    error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question input and answer view.
	ViewAsk
	// ViewDocuments lists ingested documents.
	ViewDocuments
	// ViewDocContent shows document content.
	ViewDocContent
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the list of live documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// StatsLoaded carries corpus and index statistics.
type StatsLoaded struct {
	Stats *domain.IndexStats
	Err   error
}

// DocumentSelected signals a document was selected. Back is the view
// to return to when the content view is closed.
type DocumentSelected struct {
	Document domain.Document
	Back     ViewType
}

// DocumentContentLoaded carries the content of a document. Document holds
// the refreshed metadata when it could be fetched.
type DocumentContentLoaded struct {
	DocumentID string
	Document   *domain.Document
	Content    string
	Err        error
}

// DocumentDeleted signals a document deletion completed.
type DocumentDeleted struct {
	DocumentID    string
	ChunksRemoved int
	Err           error
}
