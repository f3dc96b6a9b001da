// Package docdetails provides the document details view for the TUI.
package docdetails

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// View shows one document with its metadata, and optionally its text.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	details      *domain.DocumentDetails
	showContent  bool
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
}

// NewView creates a new document details view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetState(status.StateDetails)

	return &View{
		styles:    s,
		keymap:    km,
		statusbar: bar,
		width:     80,
		height:    24,
	}
}

// SetDetails sets the document to display.
func (v *View) SetDetails(details *domain.DocumentDetails) {
	v.details = details
	v.showContent = false
	v.scrollOffset = 0
	v.err = nil
	if details != nil {
		v.statusbar.SetMessage(fmt.Sprintf("#%d %s", details.Document.ID, details.Document.Filename))
	}
}

// SetError sets an error to display.
func (v *View) SetError(err error) {
	v.err = err
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document details view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Up):
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case keymap.Matches(key, v.keymap.Content):
		v.showContent = !v.showContent
		v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSearch}
		}
	case keymap.Matches(key, v.keymap.Quit):
		return v, tea.Quit
	}

	return v, nil
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// title, separator, status bar and padding
	return max(v.height-6, 1)
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.buildContent())-v.visibleLines(), 0)
}

// buildContent builds the content lines for display.
func (v *View) buildContent() []string {
	if v.details == nil {
		return nil
	}

	doc := &v.details.Document
	lines := []string{
		formatField("ID", fmt.Sprintf("%d", doc.ID)),
		formatField("Filename", doc.Filename),
		formatField("Path", doc.Filepath),
		formatField("Type", fmt.Sprintf("%s (%s)", doc.SourceType, doc.Extension)),
		formatField("Words", fmt.Sprintf("%d", doc.WordCount)),
	}
	if !doc.FileCreatedAt.IsZero() {
		lines = append(lines, formatField("File time", doc.FileCreatedAt.Local().Format(timeLayout)))
	}
	if !doc.ProcessedAt.IsZero() {
		lines = append(lines, formatField("Processed", doc.ProcessedAt.Local().Format(timeLayout)))
	}

	if m := v.details.Metadata; m != nil {
		lines = append(lines, "", "Metadata:",
			"  Language: "+m.Language,
			"  Topic: "+m.Topic,
			"  Content type: "+string(m.ContentType))
		if len(m.Keywords) > 0 {
			lines = append(lines, "  Keywords: "+strings.Join(m.Keywords, ", "))
		}
		if m.Project != "" {
			lines = append(lines, "  Project: "+m.Project)
		}
		lines = append(lines,
			fmt.Sprintf("  Prompt: %t", m.IsPrompt),
			fmt.Sprintf("  LLM output: %t", m.IsLLMOutput),
			fmt.Sprintf("  Confidence: %.2f", m.Confidence))
		if m.Summary != "" {
			lines = append(lines, "  Summary: "+m.Summary)
		}
	}

	lines = append(lines, "")
	if v.details.HasEmbedding() {
		lines = append(lines, formatField("Embedding",
			fmt.Sprintf("%s, %d dimensions", v.details.EmbeddingModel, v.details.EmbeddingDims)))
	} else {
		lines = append(lines, formatField("Embedding", "none"))
	}
	for _, d := range v.details.DuplicateOf {
		lines = append(lines, formatField("Duplicate", fmt.Sprintf("of #%d (%.3f)", d.DuplicateOfID, d.Similarity)))
	}

	if v.showContent {
		lines = append(lines, "", "Content:")
		lines = append(lines, strings.Split(doc.Content, "\n")...)
	}

	return lines
}

func formatField(label, value string) string {
	return fmt.Sprintf("%-12s %s", label+":", value)
}

// View renders the document details view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Document Details"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	switch {
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	case v.details == nil:
		b.WriteString(v.styles.Muted.Render("No document selected"))
		b.WriteString("\n")
	default:
		v.renderLines(&b)
	}

	b.WriteString("\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

// renderLines writes the visible window of content lines.
func (v *View) renderLines(b *strings.Builder) {
	lines := v.buildContent()
	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(lines))
	inContent := false

	for i := 0; i < end; i++ {
		line := lines[i]
		if line == "Content:" {
			inContent = true
		}
		if i < v.scrollOffset {
			continue
		}

		switch {
		case line == "Metadata:" || line == "Content:":
			b.WriteString(v.styles.Subtitle.Render(line))
		case inContent:
			b.WriteString(v.styles.Normal.Render(line))
		case strings.Contains(line, ":"):
			parts := strings.SplitN(line, ":", 2)
			b.WriteString(v.styles.Muted.Render(parts[0] + ":"))
			b.WriteString(v.styles.Normal.Render(parts[1]))
		default:
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}

	if len(lines) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]", v.scrollOffset+1, end, len(lines))))
		b.WriteString("\n")
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}

// Details returns the current document details.
func (v *View) Details() *domain.DocumentDetails {
	return v.details
}

// ContentShown reports whether the full text is displayed.
func (v *View) ContentShown() bool {
	return v.showContent
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
