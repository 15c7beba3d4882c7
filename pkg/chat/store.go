package chat

import (
	"sync"
	"time"
)

// Store owns one conversation's message list. Dispatch is the only way to
// change it. Readers take snapshots and may subscribe to change signals.
type Store struct {
	mu       sync.RWMutex
	messages []Message
	version  uint64
	now      func() time.Time

	subMu sync.Mutex
	subs  map[int]chan struct{}
	next  int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source used for thinking durations.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMessages seeds the store.
func WithMessages(messages []Message) StoreOption {
	return func(s *Store) {
		s.messages = Reduce(nil, Load{Messages: messages}, time.Time{})
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		now:  time.Now,
		subs: make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies an action and notifies subscribers.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.messages = Reduce(s.messages, a, s.now())
	s.version++
	s.mu.Unlock()

	s.notify()
}

// Snapshot returns a copy of the current message list.
func (s *Store) Snapshot() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Last returns the last message, if any.
func (s *Store) Last() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Version increments on every dispatch.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe returns a channel that receives a signal after state changes and
// a function that cancels the subscription. Signals coalesce: a slow reader
// sees at most one pending signal and should re-read the Snapshot.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
