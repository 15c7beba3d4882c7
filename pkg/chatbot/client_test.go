package chatbot_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/chat"
	"github.com/papercomputeco/playground/pkg/chatbot"
)

// recordedRequest captures what the fake chatbot received.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

type fakeChatbot struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

func (f *fakeChatbot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &rec.Body)
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	f.handler(w, r)
}

func (f *fakeChatbot) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		fake   *fakeChatbot
		server *httptest.Server
		client *chatbot.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &fakeChatbot{handler: func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		}}
		server = httptest.NewServer(fake)

		var err error
		client, err = chatbot.NewClient(chatbot.Config{BaseURL: server.URL + "/"})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("NewClient", func() {
		It("requires a base URL with scheme and host", func() {
			_, err := chatbot.NewClient(chatbot.Config{})
			Expect(err).To(HaveOccurred())

			_, err = chatbot.NewClient(chatbot.Config{BaseURL: "localhost:8000"})
			Expect(err).To(HaveOccurred())
		})

		It("defaults the user to 0", func() {
			Expect(client.UserID()).To(Equal("0"))
		})
	})

	It("lists conversations", func() {
		fake.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": "c1", "user_id": "0", "title": "First", "created_at": 1700000000.5, "updated_at": 1700000100.0},
			})
		}

		convs, err := client.ListConversations(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(convs).To(HaveLen(1))
		Expect(convs[0].ID).To(Equal("c1"))
		Expect(convs[0].Title).To(Equal("First"))
		Expect(convs[0].CreatedAt.Time().Unix()).To(Equal(int64(1700000000)))

		req := fake.last()
		Expect(req.Method).To(Equal(http.MethodGet))
		Expect(req.Path).To(Equal("/v1/chatbot/conversations/0"))
	})

	It("creates a conversation titled New Chat by default", func() {
		fake.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": "c9", "user_id": "0", "title": "New Chat"})
		}

		conv, err := client.CreateConversation(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(conv.ID).To(Equal("c9"))

		req := fake.last()
		Expect(req.Method).To(Equal(http.MethodPost))
		Expect(req.Body).To(Equal(map[string]any{"title": "New Chat"}))
	})

	It("loads a conversation as completed chat messages", func() {
		fake.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"id": "c1", "user_id": "0", "title": "T",
				"messages": []map[string]any{
					{"role": "user", "content": "q"},
					{"role": "assistant", "content": "a", "thinking": "t"},
				},
			})
		}

		detail, err := client.GetConversation(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(fake.last().Path).To(Equal("/v1/chatbot/conversations/0/c1"))

		msgs := detail.ChatMessages()
		Expect(msgs).To(HaveLen(2))
		Expect(msgs[1].Role).To(Equal(chat.RoleAssistant))
		Expect(msgs[1].Thinking).To(Equal("t"))
		Expect(msgs[1].IsStreaming).To(BeFalse())
		Expect(msgs[1].ThinkingDone).To(BeTrue())
		Expect(msgs[0].ID).NotTo(Equal(msgs[1].ID))
	})

	It("reports missing conversations as not found", func() {
		fake.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Conversation not found"})
		}

		err := client.DeleteConversation(ctx, "nope")
		Expect(chatbot.IsNotFound(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("Conversation not found"))
		Expect(fake.last().Method).To(Equal(http.MethodDelete))
	})

	It("patches the title", func() {
		Expect(client.UpdateTitle(ctx, "c1", "Renamed")).To(Succeed())

		req := fake.last()
		Expect(req.Method).To(Equal(http.MethodPatch))
		Expect(req.Path).To(Equal("/v1/chatbot/conversations/0/c1/title"))
		Expect(req.Body).To(Equal(map[string]any{"title": "Renamed"}))
	})

	It("saves an exchange with null thinking when there was none", func() {
		save := chatbot.NewSaveMessagesRequest("q", "a", "", map[string]any{"stage": "done"})
		Expect(client.SaveMessages(ctx, "c1", save)).To(Succeed())

		req := fake.last()
		Expect(req.Path).To(Equal("/v1/chatbot/conversations/0/c1/messages"))
		Expect(req.Body).To(HaveKeyWithValue("assistant_thinking", BeNil()))
		Expect(req.Body).To(HaveKeyWithValue("user_message", "q"))
		Expect(req.Body).To(HaveKeyWithValue("assistant_content", "a"))
		Expect(req.Body).To(HaveKeyWithValue("assistant_metadata", map[string]any{"stage": "done"}))
	})

	It("clamps the history limit", func() {
		fake.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []any{})
		}

		_, err := client.History(ctx, "c1", 9000)
		Expect(err).NotTo(HaveOccurred())
		Expect(fake.last().Query).To(Equal("conversation_id=c1&limit=500"))

		_, err = client.History(ctx, "", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(fake.last().Query).To(Equal("limit=1"))
	})

	It("returns the deleted count when clearing history", func() {
		fake.handler = func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "deleted_count": 4})
		}

		n, err := client.ClearHistory(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(4))
		Expect(fake.last().Path).To(Equal("/v1/chatbot/history/0"))
		Expect(fake.last().Query).To(Equal("conversation_id=c1"))
	})

	Describe("StreamChat", func() {
		It("posts the request and returns the open body", func() {
			fake.handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/event-stream")
				_, _ = io.WriteString(w, "data: {\"type\":\"content\",\"content\":\"Hi\"}\n\n")
			}

			body, err := client.StreamChat(ctx, chatbot.StreamRequest{
				Message:        "hello",
				History:        []chat.HistoryEntry{{Role: "user", Content: "before"}},
				ConversationID: "c1",
			})
			Expect(err).NotTo(HaveOccurred())
			defer body.Close()

			data, err := io.ReadAll(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"content":"Hi"`))

			req := fake.last()
			Expect(req.Path).To(Equal("/v1/chatbot/chat/stream"))
			Expect(req.Body).To(HaveKeyWithValue("message", "hello"))
			Expect(req.Body).To(HaveKeyWithValue("user_id", "0"))
			Expect(req.Body).To(HaveKeyWithValue("conversation_id", "c1"))
			Expect(req.Body["history"]).To(HaveLen(1))
		})

		It("omits the conversation id and sends an empty history for a fresh local chat", func() {
			_, err := client.StreamChat(ctx, chatbot.StreamRequest{Message: "hello"})
			Expect(err).NotTo(HaveOccurred())

			req := fake.last()
			Expect(req.Body).NotTo(HaveKey("conversation_id"))
			Expect(req.Body["history"]).To(BeEmpty())
			Expect(req.Body["history"]).NotTo(BeNil())
		})

		It("returns a status error on a non-2xx answer", func() {
			fake.handler = func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "upstream down", http.StatusBadGateway)
			}

			_, err := client.StreamChat(ctx, chatbot.StreamRequest{Message: "hello"})

			var se *chatbot.StatusError
			Expect(err).To(BeAssignableToTypeOf(se))
			Expect(err.(*chatbot.StatusError).Code).To(Equal(http.StatusBadGateway))
			Expect(err.Error()).To(ContainSubstring("upstream down"))
		})
	})
})
