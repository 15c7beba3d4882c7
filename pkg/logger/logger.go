// Package logger builds the slog loggers used across the playground. Records
// go to stderr by default so stdout is left to the conversation.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type settings struct {
	format Format
	level  slog.Level
	source bool
	out    []io.Writer
}

// New returns a logger configured by opts. Without options it writes text
// records at Info level to os.Stderr.
func New(opts ...Option) *slog.Logger {
	s := settings{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(&s)
	}

	w := io.Writer(os.Stderr)
	if len(s.out) == 1 {
		w = s.out[0]
	} else if len(s.out) > 1 {
		w = io.MultiWriter(s.out...)
	}

	if s.format == FormatPretty {
		return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(s.level),
			ReportTimestamp: true,
			ReportCaller:    s.source,
		}))
	}

	ho := &slog.HandlerOptions{Level: s.level, AddSource: s.source}
	if s.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

// Session returns the logger of an interactive command: JSON records in
// file and, when console is not nil, pretty records on console as well.
func Session(file, console io.Writer, debug bool) *slog.Logger {
	l := New(WithFormat(FormatJSON), WithWriter(file), WithDebug(debug))
	if console == nil {
		return l
	}
	return Multi(l, New(WithFormat(FormatPretty), WithWriter(console), WithDebug(debug)))
}

// Nop returns a logger that drops every record.
func Nop() *slog.Logger {
	return slog.New(discard{})
}

type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (d discard) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discard) WithGroup(string) slog.Handler           { return d }
