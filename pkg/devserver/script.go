package devserver

import (
	"strings"

	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/stream"
	"github.com/papercomputeco/playground/pkg/utils"
)

// ScriptModel is reported in the meta frame of scripted replies.
var ScriptModel = map[string]any{"provider": "devserver", "name": "echo"}

// Reply is the scripted answer to message.
func Reply(message string) string {
	return "You said: " + message
}

// Script returns the frames of the scripted reply to req: two thinking
// lines, the reply word by word, a meta frame and done.
func Script(req chatbot.StreamRequest) []stream.Frame {
	reply := Reply(req.Message)

	frames := []stream.Frame{
		stream.ThinkingFrame{Text: "Reading the question\n"},
		stream.ThinkingFrame{Text: "Drafting a reply to: " + utils.Truncate(req.Message, 40) + "\n"},
	}

	for _, word := range strings.SplitAfter(reply, " ") {
		if word == "" {
			continue
		}
		frames = append(frames, stream.ContentFrame{Text: word})
	}

	input := words(req.Message)
	for _, h := range req.History {
		input += words(h.Content)
	}
	output := words(reply)

	frames = append(frames,
		stream.MetaFrame{Metadata: map[string]any{
			"stage": "done",
			"model": ScriptModel,
			"usage": map[string]any{
				"input_tokens":  input,
				"output_tokens": output,
				"total_tokens":  input + output,
			},
		}},
		stream.DoneFrame{},
	)
	return frames
}

func words(s string) int {
	return len(strings.Fields(s))
}
