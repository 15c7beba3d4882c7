// Package assembler turns a chatbot reply stream into store updates for the
// in-flight assistant message.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/playground/pkg/chat"
	"github.com/papercomputeco/playground/pkg/logger"
	"github.com/papercomputeco/playground/pkg/stream"
)

// MalformedPolicy decides what happens to a data line that is not JSON.
type MalformedPolicy int

const (
	// SkipMalformed logs and counts the line and keeps reading.
	SkipMalformed MalformedPolicy = iota

	// AbortOnMalformed fails the whole reply.
	AbortOnMalformed
)

// ParseMalformedPolicy maps a config value to a policy. Unknown values are
// an error.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipMalformed, nil
	case "abort":
		return AbortOnMalformed, nil
	default:
		return SkipMalformed, fmt.Errorf("unknown malformed frame policy %q (expected skip or abort)", s)
	}
}

func (p MalformedPolicy) String() string {
	if p == AbortOnMalformed {
		return "abort"
	}
	return "skip"
}

// Result is the assembled reply, used for persistence once the stream ends.
type Result struct {
	Content  string
	Thinking string
	Metadata chat.Metadata

	// Frames counts decoded frames, Skipped counts malformed lines dropped.
	Frames  int
	Skipped int
}

// Observer is notified of every frame after it has been applied.
type Observer func(stream.Frame)

// Assembler applies a reply stream to a store.
type Assembler struct {
	store    *chat.Store
	logger   *slog.Logger
	policy   MalformedPolicy
	recorder io.Writer
	observer Observer
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithPolicy sets the malformed frame policy.
func WithPolicy(p MalformedPolicy) Option {
	return func(a *Assembler) {
		a.policy = p
	}
}

// WithRecorder tees the raw reply bytes to w.
func WithRecorder(w io.Writer) Option {
	return func(a *Assembler) {
		a.recorder = w
	}
}

// WithObserver registers a per-frame callback.
func WithObserver(o Observer) Option {
	return func(a *Assembler) {
		a.observer = o
	}
}

// New returns an Assembler writing to store.
func New(store *chat.Store, opts ...Option) *Assembler {
	a := &Assembler{
		store:  store,
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run consumes body until it ends. On a clean end of stream it finalizes the
// reply. On any failure it returns the error and leaves the reply streaming;
// the caller decides how to surface it.
func (a *Assembler) Run(ctx context.Context, body io.Reader) (Result, error) {
	var (
		res      Result
		content  strings.Builder
		thinking strings.Builder
	)

	var readerOpts []stream.ReaderOption
	if a.recorder != nil {
		readerOpts = append(readerOpts,
			stream.WithRecorder(a.recorder),
			stream.OnRecordError(func(err error) {
				a.logger.Warn("recording stopped", "error", err)
			}),
		)
	}
	r := stream.NewReader(body, readerOpts...)

	for {
		if err := ctx.Err(); err != nil {
			return a.result(res, &content, &thinking), err
		}

		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var malformed *stream.MalformedFrameError
		if errors.As(err, &malformed) {
			if a.policy == AbortOnMalformed {
				return a.result(res, &content, &thinking), err
			}
			res.Skipped++
			a.logger.Warn("skipping malformed frame",
				"line", malformed.Line,
				"error", malformed.Err,
			)
			continue
		}
		if err != nil {
			a.logger.Debug("reply stream interrupted", "error", err, "frames", res.Frames)
			return a.result(res, &content, &thinking), err
		}

		res.Frames++
		a.apply(f, &res, &content, &thinking)
		if a.observer != nil {
			a.observer(f)
		}
	}

	a.store.Dispatch(chat.Finalize{})
	return a.result(res, &content, &thinking), nil
}

func (a *Assembler) apply(f stream.Frame, res *Result, content, thinking *strings.Builder) {
	switch f := f.(type) {
	case stream.ThinkingFrame:
		thinking.WriteString(f.Text)
		a.store.Dispatch(chat.AppendThinking{Text: f.Text})
	case stream.ContentFrame:
		content.WriteString(f.Text)
		a.store.Dispatch(chat.AppendContent{Text: f.Text})
	case stream.MetaFrame:
		res.Metadata = f.Metadata
		a.store.Dispatch(chat.SetMetadata{Metadata: f.Metadata})
	case stream.DoneFrame:
	case stream.UnknownFrame:
		a.logger.Debug("ignoring unknown frame", "type", f.Type)
	}
}

func (a *Assembler) result(res Result, content, thinking *strings.Builder) Result {
	res.Content = content.String()
	res.Thinking = thinking.String()
	return res
}
