package devserver

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/playground/pkg/chatbot"
)

// MaxConversations is how many conversations a user keeps. Creating one more
// drops the least recently updated.
const MaxConversations = 20

type conversation struct {
	summary  chatbot.ConversationSummary
	messages []chatbot.StoredMessage
}

// store is the in-memory conversation and history state.
type store struct {
	mu sync.Mutex

	conversations map[string]*conversation
	history       []chatbot.HistoryEntry
	nextHistoryID int64

	now func() time.Time
}

func newStore(now func() time.Time) *store {
	if now == nil {
		now = time.Now
	}
	return &store{
		conversations: map[string]*conversation{},
		nextHistoryID: 1,
		now:           now,
	}
}

func (s *store) list(userID string) []chatbot.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(userID)
}

func (s *store) listLocked(userID string) []chatbot.ConversationSummary {
	out := []chatbot.ConversationSummary{}
	for _, c := range s.conversations {
		if c.summary.UserID == userID {
			out = append(out, c.summary)
		}
	}
	slices.SortFunc(out, func(a, b chatbot.ConversationSummary) int {
		switch {
		case a.UpdatedAt > b.UpdatedAt:
			return -1
		case a.UpdatedAt < b.UpdatedAt:
			return 1
		}
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return 0
	})
	return out
}

func (s *store) create(userID, title string) chatbot.ConversationSummary {
	if title == "" {
		title = chatbot.DefaultTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := chatbot.NewTimestamp(s.now())
	c := &conversation{summary: chatbot.ConversationSummary{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.conversations[c.summary.ID] = c

	if all := s.listLocked(userID); len(all) > MaxConversations {
		for _, stale := range all[MaxConversations:] {
			s.deleteLocked(stale.ID)
		}
	}

	return c.summary
}

func (s *store) get(userID, id string) (*chatbot.ConversationDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok || c.summary.UserID != userID {
		return nil, false
	}

	return &chatbot.ConversationDetail{
		ConversationSummary: c.summary,
		Messages:            append([]chatbot.StoredMessage{}, c.messages...),
	}, true
}

func (s *store) delete(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok || c.summary.UserID != userID {
		return false
	}
	s.deleteLocked(id)
	return true
}

func (s *store) deleteLocked(id string) {
	delete(s.conversations, id)
	s.history = slices.DeleteFunc(s.history, func(h chatbot.HistoryEntry) bool {
		return h.ConversationID == id
	})
}

func (s *store) updateTitle(userID, id, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok || c.summary.UserID != userID {
		return false
	}
	c.summary.Title = title
	c.summary.UpdatedAt = chatbot.NewTimestamp(s.now())
	return true
}

func (s *store) save(userID, id string, req chatbot.SaveMessagesRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok || c.summary.UserID != userID {
		return false
	}

	now := chatbot.NewTimestamp(s.now())
	assistant := chatbot.StoredMessage{
		Role:      "assistant",
		Content:   req.AssistantContent,
		Metadata:  req.AssistantMetadata,
		CreatedAt: now,
	}
	if req.AssistantThinking != nil {
		assistant.Thinking = *req.AssistantThinking
	}

	c.messages = append(c.messages,
		chatbot.StoredMessage{Role: "user", Content: req.UserMessage, CreatedAt: now},
		assistant,
	)
	c.summary.UpdatedAt = now

	s.history = append(s.history, chatbot.HistoryEntry{
		ID:                s.nextHistoryID,
		UserID:            userID,
		ConversationID:    id,
		UserMessage:       req.UserMessage,
		AssistantContent:  req.AssistantContent,
		AssistantThinking: req.AssistantThinking,
		CreatedAt:         now,
	})
	s.nextHistoryID++
	return true
}

// listHistory returns entries newest first.
func (s *store) listHistory(userID, conversationID string, limit int) []chatbot.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []chatbot.HistoryEntry{}
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		h := s.history[i]
		if h.UserID != userID {
			continue
		}
		if conversationID != "" && h.ConversationID != conversationID {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (s *store) clearHistory(userID, conversationID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.history)
	s.history = slices.DeleteFunc(s.history, func(h chatbot.HistoryEntry) bool {
		return h.UserID == userID && (conversationID == "" || h.ConversationID == conversationID)
	})
	return before - len(s.history)
}
