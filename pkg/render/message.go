package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/playground/pkg/chat"
	"github.com/papercomputeco/playground/pkg/cliui"
)

// Themes accepted by PaletteFor.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Palette holds the styles of one theme.
type Palette struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Pill      lipgloss.Style
	PillLive  lipgloss.Style
	Thinking  lipgloss.Style
	SQL       lipgloss.Style
	Error     lipgloss.Style
	Meta      lipgloss.Style
	Border    lipgloss.Color
}

// PaletteFor returns the palette for theme. Unknown themes get the dark one.
func PaletteFor(theme string) Palette {
	if theme == ThemeLight {
		return Palette{
			User:      lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25")).Padding(0, 1),
			Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
			Pill:      lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Background(lipgloss.Color("254")).Padding(0, 1),
			PillLive:  lipgloss.NewStyle().Foreground(lipgloss.Color("130")).Background(lipgloss.Color("230")).Padding(0, 1),
			Thinking:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			SQL:       lipgloss.NewStyle().Foreground(lipgloss.Color("25")),
			Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
			Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Border:    lipgloss.Color("250"),
		}
	}

	return Palette{
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("111")).Padding(0, 1),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Pill:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("237")).Padding(0, 1),
		PillLive:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Background(lipgloss.Color("236")).Padding(0, 1),
		Thinking:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		SQL:       lipgloss.NewStyle().Foreground(lipgloss.Color("81")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Border:    lipgloss.Color("238"),
	}
}

// Options configures a Renderer.
type Options struct {
	// Width is the column budget. Zero means 80.
	Width int

	// Markdown renders completed answers with glamour.
	Markdown bool

	Theme string
}

// Renderer draws messages with a fixed width and theme.
type Renderer struct {
	width    int
	markdown bool
	theme    string
	palette  Palette
}

// New returns a Renderer.
func New(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	return &Renderer{
		width:    opts.Width,
		markdown: opts.Markdown,
		theme:    opts.Theme,
		palette:  PaletteFor(opts.Theme),
	}
}

// Transcript renders messages separated by blank lines.
func (r *Renderer) Transcript(messages []chat.Message) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, r.Message(m))
	}
	return strings.Join(parts, "\n\n")
}

// Message renders one message.
func (r *Renderer) Message(m chat.Message) string {
	if m.Role == chat.RoleUser {
		return lipgloss.NewStyle().Width(r.width).Align(lipgloss.Right).
			Render(r.palette.User.MaxWidth(r.width).Render(m.Content))
	}

	if m.IsStreaming && m.Thinking == "" && m.Content == "" {
		return r.palette.PillLive.Render("Thinking...")
	}

	var parts []string
	if m.Thinking != "" {
		parts = append(parts, r.ThinkingPill(m))
	}

	if m.Content != "" {
		parts = append(parts, r.content(m))
	}

	if line := TokenMetaLine(m.Metadata); line != "" {
		parts = append(parts, r.palette.Meta.Render(ansi.Truncate(line, r.width, "…")))
	}

	return strings.Join(parts, "\n")
}

// PillLabel is the text of the thinking pill.
func PillLabel(m chat.Message) string {
	if m.IsThinking() {
		return "Thinking: " + CurrentActivity(m.Thinking)
	}
	return "Thought for " + FormatThinkingDuration(m.ThinkingDuration)
}

// ThinkingPill renders the one-line reasoning summary of an assistant reply.
func (r *Renderer) ThinkingPill(m chat.Message) string {
	style := r.palette.Pill
	if m.IsThinking() {
		style = r.palette.PillLive
	}
	return style.Render(ansi.Truncate(PillLabel(m), r.width-2, "…"))
}

// ThinkingPanel renders the full thought process of m, one styled line per
// trace line.
func (r *Renderer) ThinkingPanel(m chat.Message) string {
	lines := []string{r.ThinkingPill(m), ""}
	for _, l := range ThinkingLines(m.Thinking) {
		style := r.palette.Thinking
		switch l.Kind {
		case LineSQL:
			style = r.palette.SQL
		case LineError:
			style = r.palette.Error
		}
		lines = append(lines, style.Width(r.width).Render(l.Text))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) content(m chat.Message) string {
	if m.Failed {
		return r.palette.Error.Width(r.width).Render(m.Content)
	}

	if r.markdown && !m.IsStreaming {
		out, err := cliui.RenderMarkdownStyle(m.Content, r.width, r.theme)
		if err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return r.palette.Assistant.Width(r.width).Render(m.Content)
}
