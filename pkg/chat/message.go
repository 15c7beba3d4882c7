// Package chat holds the conversation message model and the single-writer
// store that owns a conversation's message list.
//
// All mutation goes through Reduce. The Store applies actions under its lock
// and hands readers immutable snapshots, so a renderer never observes a
// half-applied update.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation.
type Message struct {
	// ID is client generated for optimistic entries and positional for
	// messages loaded from the chatbot.
	ID string

	Role Role

	// Content is the final answer text. It only grows while streaming.
	Content string

	// Thinking is the reasoning trace. It only grows while streaming and may
	// stay empty.
	Thinking string

	// IsStreaming is true while the reply is still being received.
	IsStreaming bool

	// ThinkingDone is true once the first content arrived or the reply ended.
	ThinkingDone bool

	// ThinkingStartedAt is when the reply was requested.
	ThinkingStartedAt time.Time

	// ThinkingDuration is fixed when ThinkingDone flips to true.
	ThinkingDuration time.Duration

	// Metadata is the last metadata object received for the reply.
	Metadata Metadata

	// Failed is true when the stream ended in an error. Content then holds
	// the error text.
	Failed bool

	// CreatedAt is set on messages loaded from the chatbot.
	CreatedAt time.Time
}

// IsThinking reports whether the reasoning phase is still open.
func (m Message) IsThinking() bool {
	return m.IsStreaming && !m.ThinkingDone
}

// NewPair builds the optimistic user message and the empty streaming
// assistant placeholder for one exchange. Both IDs share a pair suffix.
func NewPair(text string, now time.Time) (Message, Message) {
	pair := uuid.NewString()

	user := Message{
		ID:      "u-" + pair,
		Role:    RoleUser,
		Content: text,
	}

	assistant := Message{
		ID:                "a-" + pair,
		Role:              RoleAssistant,
		IsStreaming:       true,
		ThinkingStartedAt: now,
	}

	return user, assistant
}

// HistoryEntry is the role/content projection of a message sent upstream as
// conversation context.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History reduces messages to the context the chatbot expects: user and
// assistant messages with non-empty content, in order.
func History(messages []Message) []HistoryEntry {
	history := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			continue
		}
		if m.Content == "" {
			continue
		}
		history = append(history, HistoryEntry{Role: string(m.Role), Content: m.Content})
	}
	return history
}
