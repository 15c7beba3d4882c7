// Package session drives one conversation view and the workspace of chats
// around it. A Session turns a line of user input into an optimistic message
// pair, a reply stream applied through the assembler, and the best-effort
// persistence calls that follow.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/playground/pkg/assembler"
	"github.com/papercomputeco/playground/pkg/chat"
	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/journal"
	"github.com/papercomputeco/playground/pkg/logger"
	"github.com/papercomputeco/playground/pkg/persist"
	"github.com/papercomputeco/playground/pkg/utils"
)

// TitleLength is the number of runes of the first message used as the title.
const TitleLength = 40

// Streamer opens reply streams.
type Streamer interface {
	StreamChat(ctx context.Context, req chatbot.StreamRequest) (io.ReadCloser, error)
}

// Enqueuer accepts best-effort jobs.
type Enqueuer interface {
	Enqueue(job persist.Job) bool
}

// Outcome describes a finished Send.
type Outcome struct {
	// Result is what the assembler collected, partial when Err is set.
	Result assembler.Result

	// Err is set when the reply failed. The failure is already visible in the
	// transcript as the reply content.
	Err error

	// FirstMessage is true when this exchange opened the chat.
	FirstMessage bool

	// Title is the optimistic title set by a first message.
	Title string
}

// Options configures a Session.
type Options struct {
	Logger   *slog.Logger
	Persist  Enqueuer
	Policy   assembler.MalformedPolicy
	Recorder io.Writer
	Observer assembler.Observer

	// OnTitle is called when the first message retitles the chat.
	OnTitle func(id, title string)

	// Clock overrides time.Now for the store.
	Clock func() time.Time
}

// Session is one open conversation.
type Session struct {
	mu   sync.RWMutex
	chat Chat

	store    *chat.Store
	streamer Streamer
	opts     Options
	logger   *slog.Logger

	inFlight atomic.Bool
}

// New opens a session for c with the given initial messages.
func New(c Chat, messages []chat.Message, streamer Streamer, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	storeOpts := []chat.StoreOption{chat.WithMessages(messages)}
	if opts.Clock != nil {
		storeOpts = append(storeOpts, chat.WithClock(opts.Clock))
	}

	return &Session{
		chat:     c,
		store:    chat.NewStore(storeOpts...),
		streamer: streamer,
		opts:     opts,
		logger:   opts.Logger.With("component", "session", "chat_id", c.ID),
	}
}

// Chat returns the chat this session belongs to.
func (s *Session) Chat() Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat
}

// Store returns the message store for rendering.
func (s *Session) Store() *chat.Store {
	return s.store
}

// Streaming reports whether a reply is in flight.
func (s *Session) Streaming() bool {
	return s.inFlight.Load()
}

// Send submits text and blocks until the reply stream ends. Reply failures
// are not returned as errors; they land in the transcript and in
// Outcome.Err. Only precondition failures return an error.
func (s *Session) Send(ctx context.Context, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrStreamInFlight
	}

	c := s.Chat()
	if c.ID == "" {
		s.inFlight.Store(false)
		return nil, ErrNoChat
	}

	snapshot := s.store.Snapshot()
	history := chat.History(snapshot)
	out := &Outcome{FirstMessage: len(snapshot) == 0}

	if out.FirstMessage {
		out.Title = utils.Prefix(text, TitleLength)
		s.retitle(out.Title)
	}

	user, assistant := chat.NewPair(text, s.now())
	s.store.Dispatch(chat.AppendPair{User: user, Assistant: assistant})

	req := chatbot.StreamRequest{Message: text, History: history}
	if !c.IsLocal() {
		req.ConversationID = c.ID
	}

	res, err := s.stream(ctx, req)
	out.Result = res
	if err != nil {
		s.logger.Warn("reply stream failed", "error", err)
		s.store.Dispatch(chat.Fail{Err: err})
		s.inFlight.Store(false)
		out.Err = err
		return out, nil
	}

	s.inFlight.Store(false)
	s.persist(c, text, res, out)
	return out, nil
}

func (s *Session) stream(ctx context.Context, req chatbot.StreamRequest) (assembler.Result, error) {
	body, err := s.streamer.StreamChat(ctx, req)
	if err != nil {
		var se *chatbot.StatusError
		if errors.As(err, &se) {
			s.logger.Debug("stream rejected", "status", se.Code, "detail", se.Detail)
			return assembler.Result{}, ErrStreamFailed
		}
		return assembler.Result{}, err
	}
	defer body.Close()

	asm := assembler.New(s.store,
		assembler.WithLogger(s.opts.Logger),
		assembler.WithPolicy(s.opts.Policy),
		assembler.WithRecorder(s.opts.Recorder),
		assembler.WithObserver(s.opts.Observer),
	)
	return asm.Run(ctx, body)
}

func (s *Session) persist(c Chat, text string, res assembler.Result, out *Outcome) {
	if s.opts.Persist == nil {
		return
	}

	if !c.IsLocal() {
		s.opts.Persist.Enqueue(persist.SaveMessagesJob{
			ConversationID: c.ID,
			Request:        chatbot.NewSaveMessagesRequest(text, res.Content, res.Thinking, res.Metadata),
		})

		if out.FirstMessage {
			s.opts.Persist.Enqueue(persist.UpdateTitleJob{
				ConversationID: c.ID,
				Title:          out.Title,
			})
		}
	}

	s.opts.Persist.Enqueue(persist.JournalJob{Entry: journal.Entry{
		ChatID:            c.ID,
		Origin:            c.Origin.String(),
		UserMessage:       text,
		AssistantContent:  res.Content,
		AssistantThinking: res.Thinking,
		Metadata:          res.Metadata,
	}})
}

func (s *Session) retitle(title string) {
	s.mu.Lock()
	s.chat.Title = title
	id := s.chat.ID
	s.mu.Unlock()

	if s.opts.OnTitle != nil {
		s.opts.OnTitle(id, title)
	}
}

func (s *Session) now() time.Time {
	if s.opts.Clock != nil {
		return s.opts.Clock()
	}
	return time.Now()
}
