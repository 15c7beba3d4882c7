// Package devserver provides a scripted stand-in for the chatbot backend. It
// serves the conversation, history and chat endpoints from memory and answers
// every message with a canned reasoning trace and an echo reply, so the
// playground can be run and tested without an LLM.
package devserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/logger"
	"github.com/papercomputeco/playground/pkg/stream"
)

const (
	basePath = "/v1/chatbot"

	defaultReplayChunk = 64
)

var errBroken = errors.New("devserver: stream broken on purpose")

// Config is the dev server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// FrameDelay is the pause between streamed frames.
	FrameDelay time.Duration

	// Recording, when set, is replayed verbatim as the body of every stream
	// instead of the scripted reply.
	Recording []byte

	// ReplayChunk is the write size used when replaying a recording.
	ReplayChunk int

	// BreakAfter aborts scripted streams after this many frames, leaving the
	// reply without done. Zero never breaks.
	BreakAfter int

	// Clock overrides time.Now for stored timestamps.
	Clock func() time.Time

	Logger *slog.Logger
}

// Server is the scripted chatbot backend.
type Server struct {
	config Config
	store  *store
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a dev server with an empty store.
func NewServer(config Config) *Server {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.ReplayChunk <= 0 {
		config.ReplayChunk = defaultReplayChunk
	}

	// Params and query values are stored past the handler, so they must not
	// alias fasthttp's request buffers.
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
	})

	s := &Server{
		config: config,
		store:  newStore(config.Clock),
		logger: config.Logger.With("component", "devserver"),
		app:    app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group(basePath)
	v1.Post("/chat", s.handleChat)
	v1.Post("/chat/stream", s.handleChatStream)
	v1.Get("/conversations/:user_id", s.handleListConversations)
	v1.Post("/conversations/:user_id", s.handleCreateConversation)
	v1.Get("/conversations/:user_id/:conversation_id", s.handleGetConversation)
	v1.Delete("/conversations/:user_id/:conversation_id", s.handleDeleteConversation)
	v1.Patch("/conversations/:user_id/:conversation_id/title", s.handleUpdateTitle)
	v1.Post("/conversations/:user_id/:conversation_id/messages", s.handleSaveMessages)
	v1.Get("/history/:user_id", s.handleListHistory)
	v1.Delete("/history/:user_id", s.handleClearHistory)

	return s
}

// App returns the underlying fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Handler adapts the server to net/http, for httptest servers.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Run starts the dev server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting dev server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the dev server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatbot.StreamRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	reply := Reply(req.Message)
	in, out := words(req.Message), words(reply)
	return c.JSON(chatbot.ChatResponse{
		Status:   "success",
		Response: reply,
		Usage: map[string]any{
			"input_tokens":  in,
			"output_tokens": out,
			"total_tokens":  in + out,
		},
	})
}

func (s *Server) handleChatStream(c *fiber.Ctx) error {
	var req chatbot.StreamRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}

	s.logger.Debug("streaming reply",
		"user_id", req.UserID,
		"conversation_id", req.ConversationID,
		"history_len", len(req.History),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	// io.Pipe gives per-chunk flushing: fasthttp writes each chunk as soon
	// as the writer hands it over.
	pr, pw := io.Pipe()
	if s.config.Recording != nil {
		go s.replay(pw)
	} else {
		go s.writeScript(pw, Script(req))
	}
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (s *Server) writeScript(pw *io.PipeWriter, frames []stream.Frame) {
	for i, f := range frames {
		if s.config.BreakAfter > 0 && i == s.config.BreakAfter {
			pw.CloseWithError(errBroken)
			return
		}

		data, err := stream.Encode(f)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := pw.Write(data); err != nil {
			return
		}
		s.pause()
	}
	pw.Close()
}

func (s *Server) replay(pw *io.PipeWriter) {
	data := s.config.Recording
	for len(data) > 0 {
		n := min(s.config.ReplayChunk, len(data))
		if _, err := pw.Write(data[:n]); err != nil {
			return
		}
		data = data[n:]
		s.pause()
	}
	pw.Close()
}

func (s *Server) pause() {
	if s.config.FrameDelay > 0 {
		time.Sleep(s.config.FrameDelay)
	}
}

func (s *Server) handleListConversations(c *fiber.Ctx) error {
	return c.JSON(s.store.list(c.Params("user_id")))
}

func (s *Server) handleCreateConversation(c *fiber.Ctx) error {
	var req chatbot.CreateConversationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
	}
	return c.JSON(s.store.create(c.Params("user_id"), req.Title))
}

func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	detail, ok := s.store.get(c.Params("user_id"), c.Params("conversation_id"))
	if !ok {
		return notFound(c)
	}
	return c.JSON(detail)
}

func (s *Server) handleDeleteConversation(c *fiber.Ctx) error {
	if !s.store.delete(c.Params("user_id"), c.Params("conversation_id")) {
		return notFound(c)
	}
	return c.JSON(chatbot.StatusResponse{Status: "deleted"})
}

func (s *Server) handleUpdateTitle(c *fiber.Ctx) error {
	var req chatbot.UpdateTitleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if !s.store.updateTitle(c.Params("user_id"), c.Params("conversation_id"), req.Title) {
		return notFound(c)
	}
	return c.JSON(chatbot.StatusResponse{Status: "updated"})
}

func (s *Server) handleSaveMessages(c *fiber.Ctx) error {
	var req chatbot.SaveMessagesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	if !s.store.save(c.Params("user_id"), c.Params("conversation_id"), req) {
		return notFound(c)
	}
	return c.JSON(chatbot.StatusResponse{Status: "saved"})
}

func (s *Server) handleListHistory(c *fiber.Ctx) error {
	limit := chatbot.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, err)
		}
		limit = n
	}

	entries := s.store.listHistory(c.Params("user_id"), c.Query("conversation_id"), chatbot.ClampHistoryLimit(limit))
	return c.JSON(entries)
}

func (s *Server) handleClearHistory(c *fiber.Ctx) error {
	n := s.store.clearHistory(c.Params("user_id"), c.Query("conversation_id"))
	return c.JSON(chatbot.StatusResponse{Status: "deleted", DeletedCount: &n})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(chatbot.ErrorResponse{Detail: "Conversation not found"})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(chatbot.ErrorResponse{Detail: err.Error()})
}
