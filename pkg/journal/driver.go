// Package journal keeps a local record of every completed exchange, including
// those made in chats the chatbot never persisted.
package journal

import (
	"context"
	"time"
)

// Entry is one completed exchange.
type Entry struct {
	ID                string         `json:"id"`
	ChatID            string         `json:"chat_id"`
	Origin            string         `json:"origin"`
	UserMessage       string         `json:"user_message"`
	AssistantContent  string         `json:"assistant_content"`
	AssistantThinking string         `json:"assistant_thinking,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	ChatID string

	// Limit caps the number of entries returned, newest first. Zero means no
	// limit.
	Limit int
}

// Driver stores journal entries.
type Driver interface {
	// Append stores an entry. Missing ID and CreatedAt are filled in.
	Append(ctx context.Context, e *Entry) error

	// List returns entries newest first.
	List(ctx context.Context, f Filter) ([]*Entry, error)

	// Get returns one entry by ID or a NotFoundError.
	Get(ctx context.Context, id string) (*Entry, error)

	// Clear removes entries for chatID, or all entries when chatID is empty,
	// and returns how many were removed.
	Clear(ctx context.Context, chatID string) (int, error)

	// Close releases the underlying resources.
	Close() error
}
