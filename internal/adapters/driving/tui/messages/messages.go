// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// EventReceived carries one pipeline event.
type EventReceived struct {
	Event domain.Event
}

// StreamClosed is sent once the pipeline event channel is closed.
type StreamClosed struct{}

// WaitForEvent returns a command that reads the next event from events.
// The model re-issues it after every EventReceived.
func WaitForEvent(events <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamClosed{}
		}
		return EventReceived{Event: ev}
	}
}

// SearchRequested is a command to perform a search.
type SearchRequested struct {
	Query   string
	Options domain.SearchOptions
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.SearchResult
	Err     error
}

// ResultSelected is sent when a search result is opened.
type ResultSelected struct {
	DocumentID int64
}

// DocumentLoaded carries a document with its metadata.
type DocumentLoaded struct {
	Details *domain.DocumentDetails
	Err     error
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSearch is the query input and results list.
	ViewSearch ViewType = iota
	// ViewDetails shows one document.
	ViewDetails
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewDetails:
		return "details"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
