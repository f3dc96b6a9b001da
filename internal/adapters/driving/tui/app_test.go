package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

func sampleResults() []domain.SearchResult {
	return []domain.SearchResult{
		{Document: domain.Document{ID: 11, Filename: "a.md", Filepath: "/archive/a.md"}, Rank: -3},
		{Document: domain.Document{ID: 12, Filename: "b.md", Filepath: "/archive/b.md"}, Rank: -2},
	}
}

func newTestApp(t *testing.T, docs *MockDocumentService) *App {
	t.Helper()
	if docs == nil {
		docs = &MockDocumentService{}
	}
	app, err := NewApp(NewPorts(&MockSearchService{results: sampleResults()}, docs))
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(NewPorts(&MockSearchService{}, &MockDocumentService{}))

	require.NoError(t, err)
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(NewPorts(nil, &MockDocumentService{}))

	assert.ErrorIs(t, err, ErrMissingSearchService)
	assert.Nil(t, app)
}

func TestApp_InitWithQuery(t *testing.T) {
	app, err := NewApp(NewPorts(&MockSearchService{}, &MockDocumentService{}))
	require.NoError(t, err)

	assert.NotNil(t, app.WithQuery("roadmap").WithLimit(5).Init())
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, nil)

	assert.Equal(t, app, app.WithContext(context.Background()))
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(NewPorts(&MockSearchService{}, &MockDocumentService{}))
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
}

func TestApp_TypingSetsQuery(t *testing.T) {
	app := newTestApp(t, nil)

	for _, r := range "test" {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "test", app.Query())
}

func TestApp_SearchFlow(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := app.Update(messages.SearchRequested{Query: "notes"})
	require.NotNil(t, cmd)

	app.Update(cmd())

	assert.Len(t, app.Results(), 2)
	assert.NoError(t, app.Err())
	assert.Contains(t, app.View(), "#11 a.md")
}

func TestApp_SearchError(t *testing.T) {
	app := newTestApp(t, nil)

	app.Update(messages.SearchCompleted{Query: "x", Err: errors.New("search failed")})

	assert.Error(t, app.Err())
}

func TestApp_OpenAndCloseDocument(t *testing.T) {
	docs := &MockDocumentService{
		details: &domain.DocumentDetails{
			Document: domain.Document{ID: 12, Filename: "b.md", Filepath: "/archive/b.md"},
		},
	}
	app := newTestApp(t, docs)
	app.Update(messages.SearchCompleted{Query: "md", Results: sampleResults()})
	app.Update(tea.KeyMsg{Type: tea.KeyDown})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	selected := cmd()
	assert.Equal(t, messages.ResultSelected{DocumentID: 12}, selected)

	_, cmd = app.Update(selected)
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, int64(12), docs.gotID)
	assert.Equal(t, messages.ViewDetails, app.CurrentView())
	require.NotNil(t, app.Details())
	assert.Contains(t, app.View(), "Document Details")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Equal(t, 1, app.SelectedIndex())
}

func TestApp_DocumentLoadError(t *testing.T) {
	app := newTestApp(t, &MockDocumentService{err: domain.ErrNotFound})

	_, cmd := app.Update(messages.ResultSelected{DocumentID: 99})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Contains(t, app.View(), "loading document 99")
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t, nil)

	app.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, app.Err(), "boom")
}

func TestApp_CtrlCQuits(t *testing.T) {
	app := newTestApp(t, nil)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
