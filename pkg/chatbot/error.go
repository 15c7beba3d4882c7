package chatbot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4 * 1024

// StatusError is returned when the chatbot answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int

	// Detail is the "detail" field of a JSON error body, or the raw body.
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: chatbot returned status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: chatbot returned status %d: %s", e.Method, e.Path, e.Code, e.Detail)
}

// IsNotFound reports whether err is a 404 from the chatbot.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

func newStatusError(method, path string, resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	detail := strings.TrimSpace(string(raw))
	var er ErrorResponse
	if json.Unmarshal(raw, &er) == nil && er.Detail != "" {
		detail = er.Detail
	}

	return &StatusError{
		Method: method,
		Path:   path,
		Code:   resp.StatusCode,
		Detail: detail,
	}
}
