package session

import "errors"

var (
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrStreamInFlight is returned by Send while a previous reply is still
	// streaming.
	ErrStreamInFlight = errors.New("a reply is still streaming")

	// ErrNoChat is returned by Send when no chat is selected.
	ErrNoChat = errors.New("no chat selected")

	// ErrStreamFailed replaces non-2xx stream answers in the failed reply.
	ErrStreamFailed = errors.New("Failed to stream response") //nolint:staticcheck // shown verbatim in the transcript
)
