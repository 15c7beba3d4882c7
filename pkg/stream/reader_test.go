package stream_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/stream"
)

const scenario = `data: {"type":"thinking","content":"check"}

data: {"type":"thinking","content":"ing"}

data: {"type":"content","content":"Hi"}

data: {"type":"content","content":" there"}

data: {"type":"meta","metadata":{"stage":"done"}}

data: {"type":"done"}

`

// chunkReader returns the source in fixed-size reads.
type chunkReader struct {
	data []byte
	size int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}

	n := min(c.size, len(c.data), len(p))
	copy(p, c.data[:n])
	c.data = c.data[n:]
	return n, nil
}

func readAll(r *stream.Reader) ([]stream.Frame, error) {
	var frames []stream.Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
	}
}

var _ = Describe("Reader", func() {
	expected := []stream.Frame{
		stream.ThinkingFrame{Text: "check"},
		stream.ThinkingFrame{Text: "ing"},
		stream.ContentFrame{Text: "Hi"},
		stream.ContentFrame{Text: " there"},
		stream.MetaFrame{Metadata: map[string]any{"stage": "done"}},
		stream.DoneFrame{},
	}

	It("yields frames in arrival order", func() {
		frames, err := readAll(stream.NewReader(strings.NewReader(scenario)))
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(Equal(expected))
	})

	It("yields identical frames when the stream arrives one byte at a time", func() {
		r := stream.NewReader(iotest.OneByteReader(strings.NewReader(scenario)))
		frames, err := readAll(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(Equal(expected))
	})

	DescribeTable("is independent of chunk boundaries",
		func(size int) {
			r := stream.NewReader(&chunkReader{data: []byte(scenario), size: size})
			frames, err := readAll(r)
			Expect(err).NotTo(HaveOccurred())
			Expect(frames).To(Equal(expected))
		},
		Entry("2 bytes", 2),
		Entry("7 bytes", 7),
		Entry("13 bytes", 13),
		Entry("64 bytes", 64),
		Entry("whole stream", len(scenario)),
	)

	It("reassembles multi-byte runes split across reads", func() {
		src := "data: {\"type\":\"content\",\"content\":\"héllo wörld 🚀\"}\n"
		r := stream.NewReader(iotest.OneByteReader(strings.NewReader(src)))

		frames, err := readAll(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(Equal([]stream.Frame{stream.ContentFrame{Text: "héllo wörld 🚀"}}))
	})

	It("processes an unterminated trailing line at end of stream", func() {
		src := "data: {\"type\":\"content\",\"content\":\"a\"}\ndata: {\"type\":\"content\",\"content\":\"b\"}"
		frames, err := readAll(stream.NewReader(strings.NewReader(src)))
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(Equal([]stream.Frame{
			stream.ContentFrame{Text: "a"},
			stream.ContentFrame{Text: "b"},
		}))
	})

	It("handles CRLF framed streams", func() {
		src := "data: {\"type\":\"thinking\",\"content\":\"t\"}\r\n\r\ndata: {\"type\":\"content\",\"content\":\"c\"}\r\n\r\n"
		frames, err := readAll(stream.NewReader(strings.NewReader(src)))
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(Equal([]stream.Frame{
			stream.ThinkingFrame{Text: "t"},
			stream.ContentFrame{Text: "c"},
		}))
	})

	It("surfaces a malformed line and keeps reading", func() {
		src := "data: {not json}\ndata: {\"type\":\"content\",\"content\":\"ok\"}\n"
		r := stream.NewReader(strings.NewReader(src))

		_, err := r.Next()
		var malformed *stream.MalformedFrameError
		Expect(errors.As(err, &malformed)).To(BeTrue())

		f, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(stream.ContentFrame{Text: "ok"}))

		_, err = r.Next()
		Expect(err).To(MatchError(io.EOF))
	})

	It("returns frames received before a transport failure, then the failure", func() {
		boom := errors.New("connection reset")
		src := io.MultiReader(
			strings.NewReader("data: {\"type\":\"thinking\",\"content\":\"partial\"}\ndata: {\"type\":\"con"),
			iotest.ErrReader(boom),
		)
		r := stream.NewReader(src)

		f, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(stream.ThinkingFrame{Text: "partial"}))

		_, err = r.Next()
		Expect(err).To(MatchError(boom))
	})

	It("tees the raw bytes to the recorder", func() {
		var rec bytes.Buffer
		r := stream.NewReader(iotest.HalfReader(strings.NewReader(scenario)), stream.WithRecorder(&rec))

		_, err := readAll(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.String()).To(Equal(scenario))
	})
})

var _ = Describe("Reader recording failures", func() {
	It("drops the recorder after a failed write and keeps reading", func() {
		var (
			failures []error
			writes   int
		)
		rec := writerFunc(func(p []byte) (int, error) {
			writes++
			return 0, errors.New("disk full")
		})
		r := stream.NewReader(
			&chunkReader{data: []byte(scenario), size: 16},
			stream.WithRecorder(rec),
			stream.OnRecordError(func(err error) { failures = append(failures, err) }),
		)

		frames, err := readAll(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(HaveLen(6))
		Expect(writes).To(Equal(1))
		Expect(failures).To(HaveLen(1))
		Expect(failures[0]).To(MatchError("disk full"))
	})
})

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

var _ = Describe("Splitter", func() {
	It("carries the partial fragment into the next feed", func() {
		var s stream.Splitter

		Expect(s.Feed([]byte("data: a"))).To(BeEmpty())
		Expect(s.Pending()).To(Equal(7))

		lines := s.Feed([]byte("bc\ndata: d"))
		Expect(lines).To(HaveLen(1))
		Expect(string(lines[0])).To(Equal("data: abc"))

		Expect(string(s.Flush())).To(Equal("data: d"))
		Expect(s.Flush()).To(BeNil())
	})

	It("returns empty lines for consecutive newlines", func() {
		var s stream.Splitter
		lines := s.Feed([]byte("a\n\nb\n"))
		Expect(lines).To(HaveLen(3))
		Expect(string(lines[1])).To(BeEmpty())
	})
})
