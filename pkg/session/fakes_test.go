package session_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing/iotest"

	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/persist"
)

const scenario = "data: {\"type\":\"thinking\",\"content\":\"check\"}\n\n" +
	"data: {\"type\":\"thinking\",\"content\":\"ing\"}\n\n" +
	"data: {\"type\":\"content\",\"content\":\"Hi\"}\n\n" +
	"data: {\"type\":\"content\",\"content\":\" there\"}\n\n" +
	"data: {\"type\":\"meta\",\"metadata\":{\"stage\":\"done\"}}\n\n"

// fakeBackend serves canned streams and records every call.
type fakeBackend struct {
	mu sync.Mutex

	streams   []chatbot.StreamRequest
	body      func() io.Reader
	streamErr error

	conversations []chatbot.ConversationSummary
	listErr       error
	createErr     error
	created       int
	detail        map[string]*chatbot.ConversationDetail
	getErr        error
	deleted       []string
	deleteErr     error

	// gate, when set, blocks the stream body until closed.
	gate chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		body:   func() io.Reader { return strings.NewReader(scenario) },
		detail: map[string]*chatbot.ConversationDetail{},
	}
}

func (f *fakeBackend) StreamChat(_ context.Context, req chatbot.StreamRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	f.streams = append(f.streams, req)
	f.mu.Unlock()

	if f.streamErr != nil {
		return nil, f.streamErr
	}

	body := f.body()
	if f.gate != nil {
		body = &gatedReader{gate: f.gate, r: body}
	}
	return io.NopCloser(body), nil
}

func (f *fakeBackend) ListConversations(context.Context) ([]chatbot.ConversationSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.conversations, nil
}

func (f *fakeBackend) CreateConversation(_ context.Context, title string) (*chatbot.ConversationSummary, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	return &chatbot.ConversationSummary{ID: "conv-" + strings.Repeat("x", f.created), Title: title}, nil
}

func (f *fakeBackend) GetConversation(_ context.Context, id string) (*chatbot.ConversationDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.detail[id]
	if !ok {
		return nil, &chatbot.StatusError{Code: 404, Detail: "Conversation not found"}
	}
	return d, nil
}

func (f *fakeBackend) DeleteConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeBackend) requests() []chatbot.StreamRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chatbot.StreamRequest(nil), f.streams...)
}

type gatedReader struct {
	gate chan struct{}
	r    io.Reader
}

func (g *gatedReader) Read(p []byte) (int, error) {
	<-g.gate
	return g.r.Read(p)
}

func failingBody(prefix string) func() io.Reader {
	return func() io.Reader {
		return io.MultiReader(strings.NewReader(prefix), iotest.ErrReader(errors.New("connection reset")))
	}
}

// recordingQueue captures jobs instead of running them.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []persist.Job
}

func (q *recordingQueue) Enqueue(job persist.Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return true
}

func (q *recordingQueue) titles() []persist.UpdateTitleJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []persist.UpdateTitleJob
	for _, j := range q.jobs {
		if t, ok := j.(persist.UpdateTitleJob); ok {
			out = append(out, t)
		}
	}
	return out
}

func (q *recordingQueue) saves() []persist.SaveMessagesJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []persist.SaveMessagesJob
	for _, j := range q.jobs {
		if s, ok := j.(persist.SaveMessagesJob); ok {
			out = append(out, s)
		}
	}
	return out
}

func (q *recordingQueue) journal() []persist.JournalJob {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []persist.JournalJob
	for _, j := range q.jobs {
		if s, ok := j.(persist.JournalJob); ok {
			out = append(out, s)
		}
	}
	return out
}
