package stream

import (
	"errors"
	"io"
)

const defaultReadSize = 32 * 1024

// Reader yields frames from a chatbot reply stream in arrival order while
// optionally writing every raw byte verbatim to a recording destination.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌────────────────────────────┐
// │  Reader.Next()   │──▶│ recording io.Writer (opt.) │
// └──────────────────┘   └────────────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Frame       │
// └──────────────────┘
type Reader struct {
	src  io.Reader
	dest io.Writer
	buf  []byte

	onRecordErr func(error)

	splitter Splitter
	pending  [][]byte

	// eof is set once src is exhausted and the trailing fragment has been
	// queued.
	eof bool
	err error
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithRecorder tees all raw bytes read from the source to w.
func WithRecorder(w io.Writer) ReaderOption {
	return func(r *Reader) {
		r.dest = w
	}
}

// OnRecordError is called once if writing to the recorder fails. The recorder
// is dropped after the first failure and reading carries on.
func OnRecordError(fn func(error)) ReaderOption {
	return func(r *Reader) {
		r.onRecordErr = fn
	}
}

// WithReadSize sets the size of each read from the source.
func WithReadSize(n int) ReaderOption {
	return func(r *Reader) {
		if n > 0 {
			r.buf = make([]byte, n)
		}
	}
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{src: src}
	for _, opt := range opts {
		opt(r)
	}

	if r.buf == nil {
		r.buf = make([]byte, defaultReadSize)
	}

	return r
}

// Next returns the next frame. Lines without a payload are skipped.
// It returns io.EOF once the source is exhausted and every buffered line,
// including an unterminated trailing one, has been consumed.
//
// A *MalformedFrameError describes a single bad line. The Reader remains
// usable afterwards and the caller decides whether to keep reading.
func (r *Reader) Next() (Frame, error) {
	for {
		for len(r.pending) > 0 {
			line := r.pending[0]
			r.pending = r.pending[1:]

			f, err := ParseLine(line)
			if err != nil {
				return nil, err
			}
			if f == nil {
				continue
			}
			return f, nil
		}

		if r.eof {
			if r.err != nil {
				return nil, r.err
			}
			return nil, io.EOF
		}

		r.fill()
	}
}

// fill performs one read from the source and queues the completed lines.
func (r *Reader) fill() {
	n, err := r.src.Read(r.buf)
	if n > 0 {
		if r.dest != nil {
			if _, werr := r.dest.Write(r.buf[:n]); werr != nil {
				r.dest = nil
				if r.onRecordErr != nil {
					r.onRecordErr(werr)
				}
			}
		}
		r.pending = append(r.pending, r.splitter.Feed(r.buf[:n])...)
	}

	if err == nil {
		return
	}

	r.eof = true
	if !errors.Is(err, io.EOF) {
		// A fragment cut off by a transport failure is not a line.
		r.splitter.Flush()
		r.err = err
		return
	}

	// Clean end of stream: the unterminated trailing fragment is a final line.
	if rest := r.splitter.Flush(); rest != nil {
		r.pending = append(r.pending, rest)
	}
}
