package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/logger"
)

func decode(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("New", func() {
	It("writes text records by default", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf)).Info("hello", "key", "value")

		Expect(buf.String()).To(ContainSubstring("msg=hello"))
		Expect(buf.String()).To(ContainSubstring("key=value"))
	})

	It("filters debug records unless asked", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithDebug(false)).Debug("hidden")
		Expect(buf.String()).To(BeEmpty())

		logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("shown")
		Expect(buf.String()).To(ContainSubstring("shown"))
	})

	It("honors an explicit level", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithLevel(slog.LevelWarn))
		l.Info("quiet")
		l.Warn("loud")

		Expect(buf.String()).NotTo(ContainSubstring("quiet"))
		Expect(buf.String()).To(ContainSubstring("loud"))
	})

	It("writes JSON records", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithFormat(logger.FormatJSON)).Info("structured", "count", 42)

		parsed := decode(&buf)
		Expect(parsed["msg"]).To(Equal("structured"))
		Expect(parsed["count"]).To(BeNumerically("==", 42))
	})

	It("writes pretty records", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithFormat(logger.FormatPretty)).Info("pretty output")

		Expect(buf.String()).To(ContainSubstring("pretty output"))
	})

	It("copies records to every writer", func() {
		var a, b bytes.Buffer
		logger.New(logger.WithWriter(&a, &b)).Info("twice")

		Expect(a.String()).To(ContainSubstring("twice"))
		Expect(b.String()).To(ContainSubstring("twice"))
	})

	It("adds the caller with WithSource", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithFormat(logger.FormatJSON), logger.WithSource(true)).Info("where")

		Expect(decode(&buf)).To(HaveKey("source"))
	})
})

var _ = Describe("Session", func() {
	It("logs JSON to the file only when there is no console", func() {
		var file bytes.Buffer
		logger.Session(&file, nil, false).Info("sent", "chat_id", "c1")

		Expect(decode(&file)["chat_id"]).To(Equal("c1"))
	})

	It("mirrors records to the console", func() {
		var file, console bytes.Buffer
		logger.Session(&file, &console, true).Debug("frame")

		Expect(decode(&file)["msg"]).To(Equal("frame"))
		Expect(console.String()).To(ContainSubstring("frame"))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		l := logger.Nop()
		for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError} {
			Expect(l.Enabled(context.Background(), lvl)).To(BeFalse())
		}
		Expect(func() { l.With("k", "v").WithGroup("g").Error("msg") }).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("dispatches to every logger", func() {
		var a, b bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&a)), nil, logger.New(logger.WithWriter(&b)))
		multi.Info("broadcast")

		Expect(a.String()).To(ContainSubstring("broadcast"))
		Expect(b.String()).To(ContainSubstring("broadcast"))
	})

	It("respects each logger's level", func() {
		var quiet, loud bytes.Buffer
		multi := logger.Multi(
			logger.New(logger.WithWriter(&quiet)),
			logger.New(logger.WithWriter(&loud), logger.WithDebug(true)),
		)
		multi.Debug("detail")

		Expect(quiet.String()).To(BeEmpty())
		Expect(loud.String()).To(ContainSubstring("detail"))
	})

	It("carries attributes and groups to every handler", func() {
		var buf bytes.Buffer
		multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithFormat(logger.FormatJSON)))
		multi.With("component", "session").WithGroup("req").Info("sent", "len", 3)

		parsed := decode(&buf)
		Expect(parsed["component"]).To(Equal("session"))
		Expect(parsed["req"]).To(HaveKeyWithValue("len", BeNumerically("==", 3)))
	})

	It("keeps writing after one handler fails", func() {
		var buf bytes.Buffer
		multi := logger.Multi(
			slog.New(failing{}),
			logger.New(logger.WithWriter(&buf)),
		)
		multi.Info("still here")

		Expect(buf.String()).To(ContainSubstring("still here"))
	})
})

type failing struct{}

func (failing) Enabled(context.Context, slog.Level) bool  { return true }
func (failing) Handle(context.Context, slog.Record) error { return errors.New("disk full") }
func (f failing) WithAttrs([]slog.Attr) slog.Handler      { return f }
func (f failing) WithGroup(string) slog.Handler           { return f }
