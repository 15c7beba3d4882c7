package assembler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing/iotest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/assembler"
	"github.com/papercomputeco/playground/pkg/chat"
	"github.com/papercomputeco/playground/pkg/stream"
)

const scenario = "data: {\"type\":\"thinking\",\"content\":\"check\"}\n\n" +
	"data: {\"type\":\"thinking\",\"content\":\"ing\"}\n\n" +
	"data: {\"type\":\"content\",\"content\":\"Hi\"}\n\n" +
	"data: {\"type\":\"content\",\"content\":\" there\"}\n\n" +
	"data: {\"type\":\"meta\",\"metadata\":{\"stage\":\"done\"}}\n\n"

func newStreamingStore(now func() time.Time) *chat.Store {
	store := chat.NewStore(chat.WithClock(now))
	u, a := chat.NewPair("hello", now())
	store.Dispatch(chat.AppendPair{User: u, Assistant: a})
	return store
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

var _ = Describe("Assembler", func() {
	var (
		ctx   context.Context
		clock time.Time
		now   func() time.Time
		store *chat.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		clock = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		now = func() time.Time { return clock }
		store = newStreamingStore(now)
	})

	It("assembles the reference scenario", func() {
		res, err := assembler.New(store).Run(ctx, strings.NewReader(scenario))
		Expect(err).NotTo(HaveOccurred())

		last, _ := store.Last()
		Expect(last.Thinking).To(Equal("checking"))
		Expect(last.Content).To(Equal("Hi there"))
		Expect(last.Metadata).To(Equal(chat.Metadata{"stage": "done"}))
		Expect(last.IsStreaming).To(BeFalse())
		Expect(last.ThinkingDone).To(BeTrue())
		Expect(last.Failed).To(BeFalse())

		Expect(res.Content).To(Equal("Hi there"))
		Expect(res.Thinking).To(Equal("checking"))
		Expect(res.Metadata).To(Equal(chat.Metadata{"stage": "done"}))
		Expect(res.Frames).To(Equal(5))
	})

	It("produces the same state for 1-byte chunks as for whole reads", func() {
		whole := newStreamingStore(now)
		_, err := assembler.New(whole).Run(ctx, strings.NewReader(scenario))
		Expect(err).NotTo(HaveOccurred())

		bytewise := newStreamingStore(now)
		_, err = assembler.New(bytewise).Run(ctx, iotest.OneByteReader(strings.NewReader(scenario)))
		Expect(err).NotTo(HaveOccurred())

		w, _ := whole.Last()
		b, _ := bytewise.Last()
		Expect(b.Content).To(Equal(w.Content))
		Expect(b.Thinking).To(Equal(w.Thinking))
		Expect(b.Metadata).To(Equal(w.Metadata))
	})

	It("marks thinking done no later than the first content frame", func() {
		var doneAtFirstContent *bool
		a := assembler.New(store, assembler.WithObserver(func(f stream.Frame) {
			if _, ok := f.(stream.ContentFrame); ok && doneAtFirstContent == nil {
				last, _ := store.Last()
				done := last.ThinkingDone
				doneAtFirstContent = &done
			}
		}))

		_, err := a.Run(ctx, strings.NewReader(scenario))
		Expect(err).NotTo(HaveOccurred())
		Expect(doneAtFirstContent).NotTo(BeNil())
		Expect(*doneAtFirstContent).To(BeTrue())
	})

	It("keeps the last of several meta frames", func() {
		src := "data: {\"type\":\"meta\",\"metadata\":{\"stage\":\"plan\",\"x\":1}}\n" +
			"data: {\"type\":\"meta\",\"metadata\":{\"stage\":\"exec\"}}\n" +
			"data: {\"type\":\"meta\",\"metadata\":{\"stage\":\"final\",\"usage\":{\"total_tokens\":9}}}\n"

		_, err := assembler.New(store).Run(ctx, strings.NewReader(src))
		Expect(err).NotTo(HaveOccurred())

		last, _ := store.Last()
		Expect(last.Metadata).To(Equal(chat.Metadata{
			"stage": "final",
			"usage": map[string]any{"total_tokens": 9.0},
		}))
	})

	It("treats done and unknown frames as no-ops", func() {
		src := "data: {\"type\":\"content\",\"content\":\"a\"}\n" +
			"data: {\"type\":\"progress\",\"pct\":50}\n" +
			"data: {\"type\":\"done\"}\n"

		res, err := assembler.New(store).Run(ctx, strings.NewReader(src))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Frames).To(Equal(3))

		last, _ := store.Last()
		Expect(last.Content).To(Equal("a"))
	})

	It("finalizes a reply that carried no frames", func() {
		_, err := assembler.New(store).Run(ctx, strings.NewReader(""))
		Expect(err).NotTo(HaveOccurred())

		last, _ := store.Last()
		Expect(last.IsStreaming).To(BeFalse())
		Expect(last.ThinkingDone).To(BeTrue())
		Expect(last.Content).To(BeEmpty())
	})

	It("stops on a transport failure without finalizing", func() {
		src := io.MultiReader(
			strings.NewReader("data: {\"type\":\"thinking\",\"content\":\"plan\"}\ndata: {\"type\":\"content\",\"content\":\"par\"}\n"),
			iotest.ErrReader(errors.New("connection reset")),
		)

		res, err := assembler.New(store).Run(ctx, src)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(Equal("connection reset"))
		Expect(res.Thinking).To(Equal("plan"))

		last, _ := store.Last()
		Expect(last.IsStreaming).To(BeTrue())
	})

	Describe("malformed frames", func() {
		src := "data: {\"type\":\"content\",\"content\":\"a\"}\n" +
			"data: {oops\n" +
			"data: {\"type\":\"content\",\"content\":\"b\"}\n"

		It("skips and counts them by default", func() {
			res, err := assembler.New(store).Run(ctx, strings.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Skipped).To(Equal(1))

			last, _ := store.Last()
			Expect(last.Content).To(Equal("ab"))
		})

		It("fails the reply under the abort policy", func() {
			_, err := assembler.New(store, assembler.WithPolicy(assembler.AbortOnMalformed)).
				Run(ctx, strings.NewReader(src))

			var malformed *stream.MalformedFrameError
			Expect(errors.As(err, &malformed)).To(BeTrue())
		})
	})

	It("records the raw stream", func() {
		var rec bytes.Buffer
		_, err := assembler.New(store, assembler.WithRecorder(&rec)).Run(ctx, strings.NewReader(scenario))
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.String()).To(Equal(scenario))
	})

	It("finishes the reply when the recorder stops accepting writes", func() {
		res, err := assembler.New(store, assembler.WithRecorder(brokenWriter{})).Run(ctx, strings.NewReader(scenario))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Content).To(Equal("Hi there"))

		last, _ := store.Last()
		Expect(last.IsStreaming).To(BeFalse())
		Expect(last.Failed).To(BeFalse())
	})

	It("returns the context error when cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := assembler.New(store).Run(cctx, strings.NewReader(scenario))
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("ParseMalformedPolicy", func() {
	DescribeTable("maps config values",
		func(in string, want assembler.MalformedPolicy) {
			p, err := assembler.ParseMalformedPolicy(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(want))
		},
		Entry("empty", "", assembler.SkipMalformed),
		Entry("skip", "skip", assembler.SkipMalformed),
		Entry("abort", "ABORT", assembler.AbortOnMalformed),
	)

	It("rejects unknown values", func() {
		_, err := assembler.ParseMalformedPolicy("explode")
		Expect(err).To(HaveOccurred())
	})
})
