package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// App is the interactive archive browser following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	searchView  *search.View
	detailsView *docdetails.View

	// initialQuery is searched as soon as the program starts.
	initialQuery string

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new browser with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		searchView:  search.NewView(s, km, ports.Search),
		detailsView: docdetails.NewView(s, km),
		currentView: messages.ViewSearch,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	return a
}

// WithQuery searches for query when the program starts.
func (a *App) WithQuery(query string) *App {
	a.initialQuery = query
	return a
}

// WithLimit sets the maximum number of results per search.
func (a *App) WithLimit(limit int) *App {
	a.searchView.WithLimit(limit)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("archaeologist"),
		a.searchView.Init(),
	}
	if a.initialQuery != "" {
		query := a.initialQuery
		cmds = append(cmds, func() tea.Msg { return messages.SearchRequested{Query: query} })
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewDetails:
			a.detailsView, cmd = a.detailsView.Update(msg)
		}
		return a, cmd

	case messages.SearchRequested, messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.ResultSelected:
		return a, a.loadDocument(msg.DocumentID)

	case messages.DocumentLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.searchView, cmd = a.searchView.Update(messages.ErrorOccurred{Err: msg.Err})
			return a, cmd
		}
		a.err = nil
		a.detailsView.SetDetails(msg.Details)
		a.currentView = messages.ViewDetails
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewDetails:
			a.detailsView, cmd = a.detailsView.Update(msg)
		}
		return a, cmd
	}

	if a.currentView == messages.ViewSearch {
		a.searchView, cmd = a.searchView.Update(msg)
	}
	return a, cmd
}

// loadDocument fetches a document for the details view.
func (a *App) loadDocument(id int64) tea.Cmd {
	ctx := a.ctx
	documents := a.ports.Document
	return func() tea.Msg {
		details, err := documents.Get(ctx, id)
		if err != nil {
			return messages.DocumentLoaded{Err: fmt.Errorf("loading document %d: %w", id, err)}
		}
		return messages.DocumentLoaded{Details: details}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	if a.currentView == messages.ViewDetails {
		return a.detailsView.View()
	}
	return a.searchView.View()
}

// Run starts the browser in the alternate screen.
func (a *App) Run(opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(a.ctx)}, opts...)
	_, err := tea.NewProgram(a, opts...).Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Results returns the current search results.
func (a *App) Results() []domain.SearchResult {
	return a.searchView.Results()
}

// SelectedIndex returns the currently selected result index.
func (a *App) SelectedIndex() int {
	return a.searchView.SelectedIndex()
}

// Details returns the document shown in the details view, if any.
func (a *App) Details() *domain.DocumentDetails {
	return a.detailsView.Details()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and its views.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.searchView.SetDimensions(width, height)
	a.detailsView.SetDimensions(width, height)
}
