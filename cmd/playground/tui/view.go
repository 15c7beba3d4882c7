package tuicmder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/playground/pkg/chat"
	"github.com/papercomputeco/playground/pkg/render"
	"github.com/papercomputeco/playground/pkg/session"
)

const (
	sidebarWidth          = 28
	sidebarCollapsedWidth = 5
	thinkingPanelWidth    = 40
	minMainWidth          = 30

	// header, rule, input, help and status lines
	chromeHeight = 5
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	dividerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	localTagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
)

// layout is the column and row budget of one frame.
type layout struct {
	sidebar  int
	main     int
	thinking int
	body     int
}

func computeLayout(width, height int, collapsed, thinking bool) layout {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	l := layout{sidebar: sidebarWidth, body: max(height-chromeHeight, 3)}
	if collapsed {
		l.sidebar = sidebarCollapsedWidth
	}
	if thinking {
		l.thinking = thinkingPanelWidth
	}

	// Each visible side column costs one more column for its border.
	l.main = width - l.sidebar - 1
	if l.thinking > 0 {
		l.main -= l.thinking + 1
	}

	if l.main < minMainWidth && l.thinking > 0 {
		l.main += l.thinking + 1
		l.thinking = 0
	}
	if l.main < minMainWidth && !collapsed {
		l.main += l.sidebar - sidebarCollapsedWidth
		l.sidebar = sidebarCollapsedWidth
	}
	l.main = max(l.main, 10)

	return l
}

func (m model) View() string {
	l := computeLayout(m.width, m.height, m.collapsed, m.showThinking)
	palette := render.PaletteFor(m.theme)
	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(palette.Border)

	columns := []string{
		border.BorderRight(true).Width(l.sidebar).Height(l.body).Render(m.viewSidebar(l.sidebar, l.body)),
		lipgloss.NewStyle().Width(l.main).Height(l.body).Render(m.viewport.View()),
	}
	if l.thinking > 0 {
		columns = append(columns,
			border.BorderLeft(true).Width(l.thinking).Height(l.body).Render(m.viewThinking(l.thinking-1, l.body)))
	}

	width := l.sidebar + l.main + 1
	if l.thinking > 0 {
		width += l.thinking + 1
	}

	return strings.Join([]string{
		m.viewHeader(width),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		dividerStyle.Render(strings.Repeat("─", width)),
		m.viewInput(),
		m.viewStatus(width),
		mutedStyle.Render(m.help.View(m.keys)),
	}, "\n")
}

func (m model) viewHeader(width int) string {
	left := titleStyle.Render("playground")
	if m.active != nil {
		left += mutedStyle.Render("  ·  ") + m.active.Chat().Title
	}
	right := mutedStyle.Render(m.theme)
	return renderHeaderLine(width, left, right)
}

// viewSidebar lists chats newest first. Collapsed, it only shows the count.
func (m model) viewSidebar(width, height int) string {
	if m.collapsed || width <= sidebarCollapsedWidth {
		return mutedStyle.Render("≡") + "\n" + activeStyle.Render(strconv.Itoa(len(m.chats)))
	}

	lines := []string{mutedStyle.Render(fmt.Sprintf("Chats (%d)", len(m.chats))), ""}
	if len(m.chats) == 0 {
		lines = append(lines, mutedStyle.Render("No chats yet"))
	}

	activeID := ""
	if m.active != nil {
		activeID = m.active.Chat().ID
	}

	start, end := visibleRange(len(m.chats), m.cursor, max(height-2, 1))
	for i := start; i < end; i++ {
		lines = append(lines, m.sidebarLine(m.chats[i], width, i == m.cursor, m.chats[i].ID == activeID))
	}
	return strings.Join(lines, "\n")
}

func (m model) sidebarLine(c session.Chat, width int, cursor, active bool) string {
	marker := "  "
	if active {
		marker = "● "
	}

	title := c.Title
	if title == "" {
		title = "Untitled"
	}
	label := marker + ansi.Truncate(title, width-4, "…")

	switch {
	case cursor && m.focus == focusSidebar:
		return cursorStyle.Render(label)
	case active:
		label = activeStyle.Render(label)
	}
	if c.IsLocal() {
		label += localTagStyle.Render(" ◌")
	}
	return label
}

// viewThinking shows the thought process of the latest reply.
func (m model) viewThinking(width, height int) string {
	msg, ok := m.latestThinking()
	if !ok {
		return mutedStyle.Render("No thoughts yet")
	}

	lines := strings.Split(m.renderer(width).ThinkingPanel(msg), "\n")
	if len(lines) > height {
		// keep the pill and the newest lines
		lines = append(lines[:1], lines[len(lines)-height+1:]...)
	}
	return strings.Join(lines, "\n")
}

func (m model) latestThinking() (chat.Message, bool) {
	if m.active == nil {
		return chat.Message{}, false
	}
	msgs := m.active.Store().Snapshot()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chat.RoleAssistant && msgs[i].Thinking != "" {
			return msgs[i], true
		}
	}
	return chat.Message{}, false
}

func (m model) transcript() string {
	width := m.viewport.Width
	if m.active == nil {
		return mutedStyle.Render("Type a message below to start a new chat.")
	}

	msgs := m.active.Store().Snapshot()
	if len(msgs) == 0 {
		return mutedStyle.Render("Nothing here yet. Say hello.")
	}
	return m.renderer(width).Transcript(msgs)
}

func (m model) viewInput() string {
	if m.active != nil && m.active.Streaming() {
		return m.spinner.View() + mutedStyle.Render(" streaming reply...")
	}
	return m.input.View()
}

func (m model) viewStatus(width int) string {
	if m.status == "" {
		return ""
	}
	return statusStyle.Render(ansi.Truncate(m.status, width, "…"))
}

// visibleRange returns the window of size rows that keeps cursor in view.
func visibleRange(total, cursor, size int) (int, int) {
	if total <= size {
		return 0, total
	}
	start := max(cursor-size+1, 0)
	end := start + size
	if end > total {
		end = total
		start = total - size
	}
	return start, end
}

func renderHeaderLine(width int, left, right string) string {
	lineWidth := width
	if lineWidth <= 0 {
		lineWidth = 80
	}
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= lineWidth {
		return strings.TrimSpace(left + " " + right)
	}
	return left + strings.Repeat(" ", lineWidth-leftWidth-rightWidth) + right
}
