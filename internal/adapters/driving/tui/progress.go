package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

// recentLimit is how many finished documents the view lists.
const recentLimit = 8

// Counts tallies documents by outcome as events arrive.
type Counts struct {
	Discovered int
	Stored     int
	Skipped    int
	Failed     int
	Deferred   int
	Duplicates int
}

// Done returns the number of documents that reached a terminal state.
func (c Counts) Done() int {
	return c.Stored + c.Skipped + c.Failed + c.Deferred
}

// Progress renders a live view of one ingestion run.
// It implements tea.Model and consumes pipeline events until the channel
// is closed.
type Progress struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	bar     *status.Bar

	root    string
	events  <-chan domain.Event
	cancel  func()
	counts  Counts
	current string
	recent  []domain.Event
	summary *domain.RunSummary

	stopping bool
	done     bool
	width    int
}

// Ensure Progress implements tea.Model.
var _ tea.Model = (*Progress)(nil)

// NewProgress creates a progress view for a run over root. cancel is
// called when the user asks to stop; it may be nil.
func NewProgress(root string, events <-chan domain.Event, cancel func()) *Progress {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Spinner

	bar := status.NewBar(s, km)
	bar.SetState(status.StateRunning)

	return &Progress{
		styles:  s,
		keymap:  km,
		spinner: sp,
		bar:     bar,
		root:    root,
		events:  events,
		cancel:  cancel,
		width:   80,
	}
}

// Init implements tea.Model.
func (p *Progress) Init() tea.Cmd {
	return tea.Batch(p.spinner.Tick, messages.WaitForEvent(p.events))
}

// Update implements tea.Model.
func (p *Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.bar.SetWidth(msg.Width)
		return p, nil

	case tea.KeyMsg:
		if !keymap.Matches(msg.String(), p.keymap.Quit) {
			return p, nil
		}
		if p.done || p.stopping {
			return p, tea.Quit
		}
		p.stopping = true
		p.bar.SetState(status.StateStopping)
		if p.cancel != nil {
			p.cancel()
		}
		return p, nil

	case messages.EventReceived:
		p.apply(msg.Event)
		return p, messages.WaitForEvent(p.events)

	case messages.StreamClosed:
		p.done = true
		p.current = ""
		p.bar.SetState(status.StateFinished)
		if p.summary != nil {
			p.bar.SetMessage(SummaryLine(p.summary))
		}
		return p, tea.Quit

	case spinner.TickMsg:
		if p.done {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *Progress) apply(ev domain.Event) {
	switch ev.Kind {
	case domain.EventDiscovered:
		p.counts.Discovered++
		p.current = ev.Path
	case domain.EventStored:
		p.counts.Stored++
	case domain.EventSkipped:
		p.counts.Skipped++
	case domain.EventFailed:
		p.counts.Failed++
	case domain.EventDeferred:
		p.counts.Deferred++
	case domain.EventDuplicate:
		p.counts.Duplicates++
	case domain.EventFinished:
		p.summary = ev.Summary
		return
	case domain.EventExtracted, domain.EventAnalyzed:
		return
	}

	if ev.Kind.IsTerminal() || ev.Kind == domain.EventDuplicate {
		p.recent = append(p.recent, ev)
		if len(p.recent) > recentLimit {
			p.recent = p.recent[len(p.recent)-recentLimit:]
		}
	}
	p.bar.SetCount(p.counts.Done())
}

// View implements tea.Model.
func (p *Progress) View() string {
	var b strings.Builder

	b.WriteString(p.styles.Title.Render("Ingesting " + p.root))
	b.WriteString("\n\n")

	if p.current != "" {
		b.WriteString(p.spinner.View())
		b.WriteString(" ")
		b.WriteString(p.styles.Normal.Render(p.relative(p.current)))
		b.WriteString("\n\n")
	}

	b.WriteString(p.renderCounts())
	b.WriteString("\n\n")

	for _, ev := range p.recent {
		b.WriteString(p.styles.ForEvent(ev.Kind).Render(p.EventLine(ev)))
		b.WriteString("\n")
	}
	if len(p.recent) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(p.bar.View())
	b.WriteString("\n")
	return b.String()
}

func (p *Progress) renderCounts() string {
	c := p.counts
	parts := []string{
		p.styles.Normal.Render(fmt.Sprintf("%d discovered", c.Discovered)),
		p.styles.Success.Render(fmt.Sprintf("%d stored", c.Stored)),
		p.styles.Muted.Render(fmt.Sprintf("%d skipped", c.Skipped)),
		p.styles.Subtitle.Render(fmt.Sprintf("%d duplicates", c.Duplicates)),
		p.styles.Warning.Render(fmt.Sprintf("%d deferred", c.Deferred)),
		p.styles.Error.Render(fmt.Sprintf("%d failed", c.Failed)),
	}
	return p.styles.Border.Render(strings.Join(parts, "  "))
}

// EventLine formats one event for the recent list.
func (p *Progress) EventLine(ev domain.Event) string {
	return FormatEvent(ev, p.relative(ev.Path))
}

func (p *Progress) relative(path string) string {
	if rel, err := filepath.Rel(p.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// Counts returns the tallies so far.
func (p *Progress) Counts() Counts {
	return p.counts
}

// Summary returns the run summary once the finished event has arrived.
func (p *Progress) Summary() *domain.RunSummary {
	return p.summary
}

// Stopping reports whether the user asked to stop the run.
func (p *Progress) Stopping() bool {
	return p.stopping
}

// Done reports whether the event stream has closed.
func (p *Progress) Done() bool {
	return p.done
}

// FormatEvent renders an event as one line with the given display path.
func FormatEvent(ev domain.Event, path string) string {
	switch ev.Kind {
	case domain.EventStored:
		return fmt.Sprintf("stored     %s (#%d)", path, ev.DocumentID)
	case domain.EventSkipped:
		if ev.DuplicateOf > 0 {
			return fmt.Sprintf("skipped    %s: %s of #%d", path, ev.Reason, ev.DuplicateOf)
		}
		return fmt.Sprintf("skipped    %s: %s", path, ev.Reason)
	case domain.EventDuplicate:
		return fmt.Sprintf("duplicate  %s ~ #%d (%.3f)", path, ev.DuplicateOf, ev.Similarity)
	case domain.EventDeferred:
		return fmt.Sprintf("deferred   %s: %v", path, ev.Err)
	case domain.EventFailed:
		return fmt.Sprintf("failed     %s: %v", path, ev.Err)
	default:
		return fmt.Sprintf("%-10s %s", ev.Kind, path)
	}
}

// SummaryLine renders the counts of a finished run.
func SummaryLine(s *domain.RunSummary) string {
	line := fmt.Sprintf("%d processed, %d skipped, %d duplicates, %d deferred, %d failed in %s",
		s.Processed, s.Skipped, s.Duplicates, s.Deferred, s.Failed, s.Duration().Round(time.Millisecond))
	if s.Cancelled {
		line += " (cancelled)"
	}
	return line
}

// RunProgress shows the progress view until the event stream closes or
// the user quits while a stop is pending. Events left unread when it
// returns must still be drained by the caller.
func RunProgress(root string, events <-chan domain.Event, cancel func(), opts ...tea.ProgramOption) (*Progress, error) {
	model := NewProgress(root, events, cancel)
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return model, fmt.Errorf("progress view: %w", err)
	}
	return model, nil
}
