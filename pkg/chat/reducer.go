package chat

import (
	"time"
)

// Action is a state transition applied by Reduce.
type Action interface {
	action()
}

// AppendPair adds the optimistic user message and the assistant placeholder.
type AppendPair struct {
	User      Message
	Assistant Message
}

// AppendThinking extends the reasoning trace of the streaming reply.
type AppendThinking struct {
	Text string
}

// AppendContent extends the answer of the streaming reply. The first one
// closes the reasoning phase.
type AppendContent struct {
	Text string
}

// SetMetadata replaces the metadata of the streaming reply.
type SetMetadata struct {
	Metadata Metadata
}

// Finalize marks the streaming reply complete.
type Finalize struct{}

// Fail ends the streaming reply with an error. The answer is replaced by the
// error text and the reasoning trace is kept.
type Fail struct {
	Err error
}

// Load replaces the whole message list.
type Load struct {
	Messages []Message
}

func (AppendPair) action()     {}
func (AppendThinking) action() {}
func (AppendContent) action()  {}
func (SetMetadata) action()    {}
func (Finalize) action()       {}
func (Fail) action()           {}
func (Load) action()           {}

// Reduce returns the message list that results from applying a to messages.
// The input slice is never modified. Streaming actions patch the last
// message and are no-ops unless it is a streaming assistant reply.
func Reduce(messages []Message, a Action, now time.Time) []Message {
	switch a := a.(type) {
	case AppendPair:
		next := make([]Message, len(messages), len(messages)+2)
		copy(next, messages)
		return append(next, a.User, a.Assistant)

	case Load:
		next := make([]Message, len(a.Messages))
		copy(next, a.Messages)
		return next

	case AppendThinking:
		return patchLast(messages, func(m *Message) {
			m.Thinking += a.Text
		})

	case AppendContent:
		return patchLast(messages, func(m *Message) {
			closeThinking(m, now)
			m.Content += a.Text
		})

	case SetMetadata:
		return patchLast(messages, func(m *Message) {
			m.Metadata = a.Metadata
		})

	case Finalize:
		return patchLast(messages, func(m *Message) {
			closeThinking(m, now)
			m.IsStreaming = false
		})

	case Fail:
		return patchLast(messages, func(m *Message) {
			msg := "unknown error"
			if a.Err != nil {
				msg = a.Err.Error()
			}
			m.Content = "Error: " + msg
			m.IsStreaming = false
			m.Failed = true
		})

	default:
		return messages
	}
}

// patchLast copies messages and applies fn to the copy of the last element
// when it is an assistant reply still streaming.
func patchLast(messages []Message, fn func(*Message)) []Message {
	if len(messages) == 0 {
		return messages
	}

	last := messages[len(messages)-1]
	if last.Role != RoleAssistant || !last.IsStreaming {
		return messages
	}

	next := make([]Message, len(messages))
	copy(next, messages)
	fn(&next[len(next)-1])
	return next
}

func closeThinking(m *Message, now time.Time) {
	if m.ThinkingDone {
		return
	}

	m.ThinkingDone = true
	if !m.ThinkingStartedAt.IsZero() {
		m.ThinkingDuration = now.Sub(m.ThinkingStartedAt)
	}
}
