// Package chatbot is the HTTP client for the chatbot conversation and
// streaming endpoints under /v1/chatbot.
package chatbot

import (
	"strconv"
	"time"

	"github.com/papercomputeco/playground/pkg/chat"
)

// DefaultUserID is used when no user is configured.
const DefaultUserID = "0"

// DefaultTitle is the title given to newly created conversations.
const DefaultTitle = "New Chat"

// Timestamp is a unix time in fractional seconds as used on the wire.
type Timestamp float64

// Time converts the timestamp to a time.Time.
func (t Timestamp) Time() time.Time {
	if t == 0 {
		return time.Time{}
	}
	sec := int64(t)
	nsec := int64((float64(t) - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}

// NewTimestamp converts t to its wire form.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(float64(t.UnixNano()) / float64(time.Second))
}

// ConversationSummary is one entry of the conversation list.
type ConversationSummary struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// ConversationDetail is a conversation with its stored messages.
type ConversationDetail struct {
	ConversationSummary
	Messages []StoredMessage `json:"messages"`
}

// StoredMessage is a persisted message as returned by the chatbot.
type StoredMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Thinking  string         `json:"thinking,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt Timestamp      `json:"created_at,omitempty"`
}

// ChatMessages converts stored messages into completed chat messages.
// Loaded messages get positional IDs and are never streaming.
func (d *ConversationDetail) ChatMessages() []chat.Message {
	out := make([]chat.Message, 0, len(d.Messages))
	for i, m := range d.Messages {
		out = append(out, chat.Message{
			ID:           d.ID + "-" + strconv.Itoa(i),
			Role:         chat.Role(m.Role),
			Content:      m.Content,
			Thinking:     m.Thinking,
			ThinkingDone: true,
			Metadata:     m.Metadata,
			CreatedAt:    m.CreatedAt.Time(),
		})
	}
	return out
}

// CreateConversationRequest is the body of a create call.
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// UpdateTitleRequest is the body of a title update.
type UpdateTitleRequest struct {
	Title string `json:"title"`
}

// StreamRequest is the body of a chat call, streamed or not.
// ConversationID is omitted for chats the chatbot does not know about.
type StreamRequest struct {
	Message        string              `json:"message"`
	History        []chat.HistoryEntry `json:"history"`
	UserID         string              `json:"user_id"`
	ConversationID string              `json:"conversation_id,omitempty"`
}

// ChatResponse is the reply of the non-streaming chat endpoint.
type ChatResponse struct {
	Status   string         `json:"status"`
	Response string         `json:"response"`
	Usage    map[string]any `json:"usage"`
}

// SaveMessagesRequest persists one completed exchange.
type SaveMessagesRequest struct {
	UserMessage       string         `json:"user_message"`
	AssistantContent  string         `json:"assistant_content"`
	AssistantThinking *string        `json:"assistant_thinking"`
	AssistantMetadata map[string]any `json:"assistant_metadata"`
}

// NewSaveMessagesRequest builds a save body. Empty thinking is sent as null.
func NewSaveMessagesRequest(user, content, thinking string, metadata map[string]any) SaveMessagesRequest {
	req := SaveMessagesRequest{
		UserMessage:       user,
		AssistantContent:  content,
		AssistantMetadata: metadata,
	}
	if thinking != "" {
		req.AssistantThinking = &thinking
	}
	return req
}

// HistoryEntry is one stored exchange from the history endpoint.
type HistoryEntry struct {
	ID                int64     `json:"id"`
	UserID            string    `json:"user_id"`
	ConversationID    string    `json:"conversation_id"`
	UserMessage       string    `json:"user_message"`
	AssistantContent  string    `json:"assistant_content"`
	AssistantThinking *string   `json:"assistant_thinking,omitempty"`
	CreatedAt         Timestamp `json:"created_at"`
}

// StatusResponse is the acknowledgement returned by mutating endpoints.
type StatusResponse struct {
	Status       string `json:"status"`
	DeletedCount *int   `json:"deleted_count,omitempty"`
}

// ErrorResponse is the error body returned on failures.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// History limits accepted by the history endpoint.
const (
	DefaultHistoryLimit = 100
	MaxHistoryLimit     = 500
)

// ClampHistoryLimit bounds a requested history limit to [1, MaxHistoryLimit].
func ClampHistoryLimit(limit int) int {
	return max(1, min(limit, MaxHistoryLimit))
}
