package session

import (
	"github.com/google/uuid"
)

// Origin says whether a chat exists on the chatbot.
type Origin int

const (
	// Persisted chats were created by the chatbot and receive save and title
	// calls.
	Persisted Origin = iota

	// Local chats were synthesized after creation failed. They only live in
	// this process and are never sent to conversation endpoints.
	Local
)

func (o Origin) String() string {
	if o == Local {
		return "local"
	}
	return "persisted"
}

const localPrefix = "local-"

// Chat is one entry of the chat list.
type Chat struct {
	ID     string
	Title  string
	Origin Origin
}

// NewLocalChat returns a client-only chat with a generated ID.
func NewLocalChat(title string) Chat {
	return Chat{
		ID:     localPrefix + uuid.NewString(),
		Title:  title,
		Origin: Local,
	}
}

// IsLocal reports whether c is unknown to the chatbot.
func (c Chat) IsLocal() bool {
	return c.Origin == Local
}
