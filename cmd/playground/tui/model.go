package tuicmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/playground/pkg/logger"
	"github.com/papercomputeco/playground/pkg/prefs"
	"github.com/papercomputeco/playground/pkg/render"
	"github.com/papercomputeco/playground/pkg/session"
)

func init() {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)
}

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

type keyMap struct {
	Send     key.Binding
	NewChat  key.Binding
	Focus    key.Binding
	Up       key.Binding
	Down     key.Binding
	Open     key.Binding
	Delete   key.Binding
	Back     key.Binding
	Sidebar  key.Binding
	Theme    key.Binding
	Thinking key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding

	sidebar bool
}

func (k keyMap) ShortHelp() []key.Binding {
	if k.sidebar {
		return []key.Binding{k.Down, k.Up, k.Open, k.Delete, k.Back, k.Sidebar, k.Theme, k.Quit}
	}
	return []key.Binding{k.Send, k.NewChat, k.Focus, k.Sidebar, k.Thinking, k.Theme, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.NewChat, k.Focus, k.PageUp, k.PageDown},
		{k.Down, k.Up, k.Open, k.Delete, k.Back},
		{k.Sidebar, k.Thinking, k.Theme, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewChat:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		Focus:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "chats")),
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Open:     key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "open")),
		Delete:   key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Back:     key.NewBinding(key.WithKeys("tab", "esc"), key.WithHelp("esc", "back")),
		Sidebar:  key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("ctrl+b", "sidebar")),
		Theme:    key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		Thinking: key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "thoughts")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

type chatsLoadedMsg struct {
	chats []session.Chat
}

// sessionOpenedMsg carries a newly active session. pending is sent right
// away when set.
type sessionOpenedMsg struct {
	session *session.Session
	pending string
}

type sendDoneMsg struct {
	chatID  string
	outcome *session.Outcome
	err     error
}

type storeChangedMsg struct {
	sig <-chan struct{}
}

type chatDeletedMsg struct {
	id string
}

type prefsMsg struct {
	prefs   prefs.Prefs
	err     error
	watched bool
}

type model struct {
	ctx    context.Context
	ws     *session.Workspace
	store  *prefs.Store
	logger *slog.Logger

	markdown     bool
	theme        string
	collapsed    bool
	showThinking bool

	chats  []session.Chat
	active *session.Session
	cursor int
	focus  focusArea
	status string

	// sig is the change signal of the active session's store.
	sig    <-chan struct{}
	unsub  func()
	prefCh <-chan prefs.Prefs

	width  int
	height int

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keys     keyMap
	help     help.Model
}

func newModel(ctx context.Context, ws *session.Workspace, store *prefs.Store, p prefs.Prefs, markdown bool, log *slog.Logger) model {
	if log == nil {
		log = logger.Nop()
	}

	in := textinput.New()
	in.Prompt = "› "
	in.Placeholder = "Ask something..."
	in.CharLimit = 4000
	in.Focus()

	return model{
		ctx:          ctx,
		ws:           ws,
		store:        store,
		logger:       log.With("component", "tui"),
		markdown:     markdown,
		theme:        p.Theme,
		collapsed:    p.SidebarCollapsed,
		showThinking: true,
		viewport:     viewport.New(80, 20),
		input:        in,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		keys:         defaultKeyMap(),
		help:         help.New(),
	}
}

func (m model) Init() bubbletea.Cmd {
	return bubbletea.Batch(textinput.Blink, loadChatsCmd(m.ctx, m.ws), waitForPrefs(m.prefCh))
}

func (m model) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case chatsLoadedMsg:
		m.chats = msg.chats
		m.cursor = clamp(m.cursor, len(m.chats)-1)
		return m, nil

	case sessionOpenedMsg:
		return m.openSession(msg)

	case sendDoneMsg:
		m.chats = m.ws.Chats()
		switch {
		case msg.err != nil:
			m.status = msg.err.Error()
		case msg.outcome.Err != nil:
			m.status = "reply failed: " + msg.outcome.Err.Error()
		default:
			m.status = ""
		}
		m.refresh()
		return m, nil

	case storeChangedMsg:
		if msg.sig != m.sig {
			return m, nil
		}
		m.chats = m.ws.Chats()
		m.refresh()
		return m, waitForChange(m.sig)

	case chatDeletedMsg:
		m.chats = m.ws.Chats()
		m.cursor = clamp(m.cursor, len(m.chats)-1)
		if m.active != nil && m.active.Chat().ID == msg.id {
			m.setActive(nil)
		}
		m.refresh()
		return m, nil

	case prefsMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.theme = msg.prefs.Theme
		m.collapsed = msg.prefs.SidebarCollapsed
		m.resize()
		if msg.watched {
			return m, waitForPrefs(m.prefCh)
		}
		return m, nil

	case spinner.TickMsg:
		if m.active == nil || !m.active.Streaming() {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.setActive(nil)
		return m, bubbletea.Quit
	case key.Matches(msg, m.keys.Sidebar):
		return m, togglePrefsCmd(m.store, (*prefs.Store).ToggleSidebar)
	case key.Matches(msg, m.keys.Theme):
		return m, togglePrefsCmd(m.store, (*prefs.Store).ToggleTheme)
	case key.Matches(msg, m.keys.Thinking):
		m.showThinking = !m.showThinking
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.NewChat):
		return m, newChatCmd(m.ctx, m.ws, "")
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Focus):
		m.focus = focusSidebar
		m.keys.sidebar = true
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Send):
		return m.submit()
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) handleSidebarKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.focus = focusInput
		m.keys.sidebar = false
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, len(m.chats)-1)
	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, len(m.chats)-1)
	case key.Matches(msg, m.keys.Open):
		if c, ok := m.selected(); ok {
			m.focus = focusInput
			m.keys.sidebar = false
			m.input.Focus()
			return m, selectChatCmd(m.ctx, m.ws, c.ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if c, ok := m.selected(); ok {
			return m, deleteChatCmd(m.ctx, m.ws, c.ID)
		}
	}
	return m, nil
}

// submit sends the input. Without an active chat one is created first.
func (m model) submit() (bubbletea.Model, bubbletea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}

	if m.active == nil {
		m.input.Reset()
		return m, newChatCmd(m.ctx, m.ws, text)
	}

	if m.active.Streaming() {
		m.status = session.ErrStreamInFlight.Error()
		return m, nil
	}

	m.input.Reset()
	m.status = ""
	return m, bubbletea.Batch(sendCmd(m.ctx, m.active, text), m.spinner.Tick)
}

func (m model) openSession(msg sessionOpenedMsg) (bubbletea.Model, bubbletea.Cmd) {
	m.setActive(msg.session)
	m.chats = m.ws.Chats()
	for i, c := range m.chats {
		if c.ID == msg.session.Chat().ID {
			m.cursor = i
		}
	}
	m.status = ""
	m.refresh()
	m.viewport.GotoBottom()

	cmds := []bubbletea.Cmd{waitForChange(m.sig)}
	if msg.pending != "" {
		cmds = append(cmds, sendCmd(m.ctx, msg.session, msg.pending))
	}
	if msg.pending != "" || msg.session.Streaming() {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, bubbletea.Batch(cmds...)
}

// setActive swaps the active session and its change subscription. The
// previous session keeps streaming into its own store.
func (m *model) setActive(s *session.Session) {
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
	m.active = s
	m.sig = nil
	if s != nil {
		m.sig, m.unsub = s.Store().Subscribe()
	}
}

func (m model) selected() (session.Chat, bool) {
	if m.cursor < 0 || m.cursor >= len(m.chats) {
		return session.Chat{}, false
	}
	return m.chats[m.cursor], true
}

// refresh re-renders the transcript, following the bottom when the reader
// was already there.
func (m *model) refresh() {
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.transcript())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *model) resize() {
	l := computeLayout(m.width, m.height, m.collapsed, m.showThinking)
	m.viewport.Width = l.main
	m.viewport.Height = l.body
	m.input.Width = max(l.main-lipgloss.Width(m.input.Prompt)-1, 10)
	m.help.Width = m.width
	m.refresh()
}

func (m model) renderer(width int) *render.Renderer {
	return render.New(render.Options{Width: width, Markdown: m.markdown, Theme: m.theme})
}

func loadChatsCmd(ctx context.Context, ws *session.Workspace) bubbletea.Cmd {
	return func() bubbletea.Msg {
		return chatsLoadedMsg{chats: ws.Refresh(ctx)}
	}
}

func newChatCmd(ctx context.Context, ws *session.Workspace, pending string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		return sessionOpenedMsg{session: ws.NewChat(ctx), pending: pending}
	}
}

func selectChatCmd(ctx context.Context, ws *session.Workspace, id string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		return sessionOpenedMsg{session: ws.Select(ctx, id)}
	}
}

func deleteChatCmd(ctx context.Context, ws *session.Workspace, id string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		ws.Delete(ctx, id)
		return chatDeletedMsg{id: id}
	}
}

func sendCmd(ctx context.Context, s *session.Session, text string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		outcome, err := s.Send(ctx, text)
		return sendDoneMsg{chatID: s.Chat().ID, outcome: outcome, err: err}
	}
}

func waitForChange(sig <-chan struct{}) bubbletea.Cmd {
	if sig == nil {
		return nil
	}
	return func() bubbletea.Msg {
		if _, ok := <-sig; !ok {
			return nil
		}
		return storeChangedMsg{sig: sig}
	}
}

func waitForPrefs(ch <-chan prefs.Prefs) bubbletea.Cmd {
	if ch == nil {
		return nil
	}
	return func() bubbletea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return prefsMsg{prefs: p, watched: true}
	}
}

func togglePrefsCmd(store *prefs.Store, toggle func(*prefs.Store) (prefs.Prefs, error)) bubbletea.Cmd {
	return func() bubbletea.Msg {
		p, err := toggle(store)
		if err != nil {
			return prefsMsg{err: fmt.Errorf("saving preferences: %w", err)}
		}
		return prefsMsg{prefs: p}
	}
}

func clamp(value, upper int) int {
	if value > upper {
		value = upper
	}
	if value < 0 {
		return 0
	}
	return value
}
