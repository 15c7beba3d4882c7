package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/papercomputeco/playground/pkg/chat"
	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/logger"
)

// Backend is the part of the chatbot client the workspace needs.
type Backend interface {
	Streamer
	ListConversations(ctx context.Context) ([]chatbot.ConversationSummary, error)
	CreateConversation(ctx context.Context, title string) (*chatbot.ConversationSummary, error)
	GetConversation(ctx context.Context, id string) (*chatbot.ConversationDetail, error)
	DeleteConversation(ctx context.Context, id string) error
}

// Workspace is the chat list plus the active session.
type Workspace struct {
	mu     sync.RWMutex
	chats  []Chat
	active *Session

	// locals keeps the sessions of local chats, which cannot be reloaded.
	locals map[string]*Session

	backend Backend
	opts    Options
	logger  *slog.Logger
}

// NewWorkspace returns an empty workspace. opts is applied to every session
// it opens.
func NewWorkspace(backend Backend, opts Options) *Workspace {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &Workspace{
		locals:  map[string]*Session{},
		backend: backend,
		opts:    opts,
		logger:  opts.Logger.With("component", "workspace"),
	}
}

// Chats returns a copy of the chat list, newest first.
func (w *Workspace) Chats() []Chat {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Chat, len(w.chats))
	copy(out, w.chats)
	return out
}

// Active returns the open session, or nil.
func (w *Workspace) Active() *Session {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

// Refresh reloads the chat list. Local chats stay at the top. On failure the
// current list is kept.
func (w *Workspace) Refresh(ctx context.Context) []Chat {
	summaries, err := w.backend.ListConversations(ctx)
	if err != nil {
		w.logger.Warn("failed to list conversations", "error", err)
		return w.Chats()
	}

	w.mu.Lock()
	next := make([]Chat, 0, len(summaries)+len(w.locals))
	for _, c := range w.chats {
		if c.IsLocal() {
			next = append(next, c)
		}
	}
	for _, s := range summaries {
		next = append(next, Chat{ID: s.ID, Title: s.Title, Origin: Persisted})
	}
	w.chats = next
	w.mu.Unlock()

	return w.Chats()
}

// NewChat creates a conversation and makes it active. When the chatbot
// cannot create one, a local chat is used instead.
func (w *Workspace) NewChat(ctx context.Context) *Session {
	var c Chat

	summary, err := w.backend.CreateConversation(ctx, chatbot.DefaultTitle)
	if err != nil {
		w.logger.Warn("failed to create conversation, using a local chat", "error", err)
		c = NewLocalChat(chatbot.DefaultTitle)
	} else {
		c = Chat{ID: summary.ID, Title: summary.Title, Origin: Persisted}
		if c.Title == "" {
			c.Title = chatbot.DefaultTitle
		}
	}

	s := w.open(c, nil)

	w.mu.Lock()
	w.chats = append([]Chat{c}, w.chats...)
	w.active = s
	w.mu.Unlock()

	return s
}

// Select opens chat id. Its messages are fetched from the chatbot; when that
// fails the session starts empty.
func (w *Workspace) Select(ctx context.Context, id string) *Session {
	c, known := w.find(id)
	if !known {
		c = Chat{ID: id, Origin: Persisted}
	}

	w.mu.RLock()
	local, ok := w.locals[id]
	w.mu.RUnlock()
	if ok {
		w.setActive(local)
		return local
	}

	var messages []chat.Message
	detail, err := w.backend.GetConversation(ctx, id)
	if err != nil {
		w.logger.Warn("failed to load conversation", "chat_id", id, "error", err)
	} else {
		messages = detail.ChatMessages()
		if c.Title == "" {
			c.Title = detail.Title
		}
	}

	s := w.open(c, messages)
	w.setActive(s)
	return s
}

// Delete removes chat id. The chatbot call is best effort; the chat leaves
// the list either way.
func (w *Workspace) Delete(ctx context.Context, id string) {
	c, known := w.find(id)
	if !known || !c.IsLocal() {
		if err := w.backend.DeleteConversation(ctx, id); err != nil {
			w.logger.Warn("failed to delete conversation", "chat_id", id, "error", err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.chats[:0]
	for _, c := range w.chats {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	w.chats = kept
	delete(w.locals, id)

	if w.active != nil && w.active.Chat().ID == id {
		w.active = nil
	}
}

// UpdateTitle renames chat id in the list.
func (w *Workspace) UpdateTitle(id, title string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.chats {
		if w.chats[i].ID == id {
			w.chats[i].Title = title
			return
		}
	}
}

// StartChat creates a chat and sends its first message.
func (w *Workspace) StartChat(ctx context.Context, text string) (*Outcome, error) {
	return w.NewChat(ctx).Send(ctx, text)
}

func (w *Workspace) open(c Chat, messages []chat.Message) *Session {
	opts := w.opts
	onTitle := w.opts.OnTitle
	opts.OnTitle = func(id, title string) {
		w.UpdateTitle(id, title)
		if onTitle != nil {
			onTitle(id, title)
		}
	}

	s := New(c, messages, w.backend, opts)
	if c.IsLocal() {
		w.mu.Lock()
		w.locals[c.ID] = s
		w.mu.Unlock()
	}
	return s
}

func (w *Workspace) setActive(s *Session) {
	w.mu.Lock()
	w.active = s
	w.mu.Unlock()
}

func (w *Workspace) find(id string) (Chat, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, c := range w.chats {
		if c.ID == id {
			return c, true
		}
	}
	return Chat{}, false
}
