package logger

import (
	"io"
	"log/slog"
)

// Format selects the record encoding.
type Format int

const (
	// FormatText is slog's key=value text.
	FormatText Format = iota

	// FormatPretty is the colorized charmbracelet/log output for terminals.
	FormatPretty

	// FormatJSON is one JSON object per record, for log files.
	FormatJSON
)

// Option tunes a logger built by New.
type Option func(*settings)

// WithFormat picks the encoding. The default is FormatText.
func WithFormat(f Format) Option {
	return func(s *settings) { s.format = f }
}

// WithLevel sets the minimum level.
func WithLevel(l slog.Level) Option {
	return func(s *settings) { s.level = l }
}

// WithDebug is WithLevel(Debug) when debug is set and a no-op otherwise.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		if debug {
			s.level = slog.LevelDebug
		}
	}
}

// WithWriter replaces the destination. Several writers receive every record.
func WithWriter(w ...io.Writer) Option {
	return func(s *settings) { s.out = w }
}

// WithSource adds the caller's file and line to each record.
func WithSource(source bool) Option {
	return func(s *settings) { s.source = source }
}
