// Package stream decodes the chatbot's newline-delimited "data: {json}" reply
// stream into typed frames.
//
// The chatbot emits one JSON object per data line. Each object carries a
// "type" discriminator that selects which logical channel of the assistant
// reply it extends:
//
//	data: {"type":"thinking","content":"checking the catalog"}
//	data: {"type":"content","content":"Hi"}
//	data: {"type":"meta","metadata":{"stage":"done"}}
//	data: {"type":"done"}
//
// Lines that do not begin with DataPrefix (blank separators, comments, event
// names) carry no payload and are skipped.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tmaxmax/go-sse"
)

// DataPrefix marks a payload-bearing line in the stream.
const DataPrefix = "data: "

// Frame type discriminators as emitted by the chatbot.
const (
	TypeThinking = "thinking"
	TypeContent  = "content"
	TypeMeta     = "meta"
	TypeDone     = "done"
)

// Frame is one decoded unit of the reply stream. The concrete type is one of
// ThinkingFrame, ContentFrame, MetaFrame, DoneFrame or UnknownFrame.
type Frame interface {
	frame()
}

// ThinkingFrame appends a fragment to the reasoning trace.
type ThinkingFrame struct {
	Text string
}

// ContentFrame appends a fragment to the final answer.
type ContentFrame struct {
	Text string
}

// MetaFrame replaces the reply metadata as a whole.
type MetaFrame struct {
	Metadata map[string]any
}

// DoneFrame is the chatbot's explicit end-of-reply marker.
type DoneFrame struct{}

// UnknownFrame carries a frame whose type this client does not understand.
// Consumers treat it as a no-op.
type UnknownFrame struct {
	Type string
	Raw  json.RawMessage
}

func (ThinkingFrame) frame() {}
func (ContentFrame) frame()  {}
func (MetaFrame) frame()     {}
func (DoneFrame) frame()     {}
func (UnknownFrame) frame()  {}

// wireFrame is the JSON shape of a single data line.
type wireFrame struct {
	Type     string         `json:"type"`
	Content  string         `json:"content,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MalformedFrameError is returned when a data line does not hold a JSON frame.
type MalformedFrameError struct {
	Line string
	Err  error
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame %q: %v", e.Line, e.Err)
}

func (e *MalformedFrameError) Unwrap() error {
	return e.Err
}

// ParseLine decodes a single stream line. It returns nil, nil for lines that
// carry no frame. A trailing carriage return is ignored.
func ParseLine(line []byte) (Frame, error) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, []byte(DataPrefix)) {
		return nil, nil
	}

	payload := line[len(DataPrefix):]

	var wf wireFrame
	if err := json.Unmarshal(payload, &wf); err != nil {
		return nil, &MalformedFrameError{Line: string(line), Err: err}
	}

	switch wf.Type {
	case TypeThinking:
		return ThinkingFrame{Text: wf.Content}, nil
	case TypeContent:
		return ContentFrame{Text: wf.Content}, nil
	case TypeMeta:
		return MetaFrame{Metadata: wf.Metadata}, nil
	case TypeDone:
		return DoneFrame{}, nil
	default:
		raw := make(json.RawMessage, len(payload))
		copy(raw, payload)
		return UnknownFrame{Type: wf.Type, Raw: raw}, nil
	}
}

// Encode renders a frame as one server-sent event: its data line followed by
// the blank separator line the chatbot writes after every event.
func Encode(f Frame) ([]byte, error) {
	var wf wireFrame

	switch f := f.(type) {
	case ThinkingFrame:
		wf = wireFrame{Type: TypeThinking, Content: f.Text}
	case ContentFrame:
		wf = wireFrame{Type: TypeContent, Content: f.Text}
	case MetaFrame:
		wf = wireFrame{Type: TypeMeta, Metadata: f.Metadata}
	case DoneFrame:
		wf = wireFrame{Type: TypeDone}
	case UnknownFrame:
		return event(f.Raw)
	default:
		return nil, fmt.Errorf("unsupported frame %T", f)
	}

	payload, err := json.Marshal(wf)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	return event(payload)
}

func event(data []byte) ([]byte, error) {
	var ev sse.Message
	ev.AppendData(string(data))
	return ev.MarshalText()
}
