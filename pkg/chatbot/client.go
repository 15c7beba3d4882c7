package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/playground/pkg/chat"
	"github.com/papercomputeco/playground/pkg/logger"
)

const (
	basePath = "/v1/chatbot"

	defaultTimeout = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL is the chatbot origin, e.g. http://localhost:8000.
	BaseURL string

	// UserID scopes conversations. Defaults to DefaultUserID.
	UserID string

	// Timeout bounds non-streaming calls. Stream requests use the transport
	// defaults only. Defaults to 30s.
	Timeout time.Duration

	// HTTPClient overrides the transport.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to the chatbot endpoints.
type Client struct {
	baseURL string
	userID  string
	timeout time.Duration

	// http has no overall timeout so reply streams can run as long as the
	// chatbot keeps writing. Other calls are bounded per request.
	http *http.Client

	logger *slog.Logger
}

// NewClient validates c and returns a Client.
func NewClient(c Config) (*Client, error) {
	if c.BaseURL == "" {
		return nil, errors.New("chatbot base URL is required")
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing chatbot base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("chatbot base URL must include scheme and host: %q", c.BaseURL)
	}

	if c.UserID == "" {
		c.UserID = DefaultUserID
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		userID:  c.UserID,
		timeout: c.Timeout,
		http:    httpClient,
		logger:  c.Logger,
	}, nil
}

// UserID returns the user the client acts for.
func (c *Client) UserID() string {
	return c.userID
}

// BaseURL returns the chatbot origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListConversations returns the user's conversations.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	var out []ConversationSummary
	if err := c.do(ctx, http.MethodGet, c.conversationsPath(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation creates a conversation. An empty title becomes
// DefaultTitle.
func (c *Client) CreateConversation(ctx context.Context, title string) (*ConversationSummary, error) {
	if title == "" {
		title = DefaultTitle
	}

	out := &ConversationSummary{}
	if err := c.do(ctx, http.MethodPost, c.conversationsPath(), CreateConversationRequest{Title: title}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConversation returns a conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	out := &ConversationDetail{}
	if err := c.do(ctx, http.MethodGet, c.conversationPath(id), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteConversation deletes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.conversationPath(id), nil, nil)
}

// UpdateTitle renames a conversation.
func (c *Client) UpdateTitle(ctx context.Context, id, title string) error {
	return c.do(ctx, http.MethodPatch, c.conversationPath(id)+"/title", UpdateTitleRequest{Title: title}, nil)
}

// SaveMessages persists one completed exchange in a conversation.
func (c *Client) SaveMessages(ctx context.Context, id string, req SaveMessagesRequest) error {
	return c.do(ctx, http.MethodPost, c.conversationPath(id)+"/messages", req, nil)
}

// History lists stored exchanges, optionally scoped to one conversation.
// The limit is clamped to the range the chatbot accepts.
func (c *Client) History(ctx context.Context, conversationID string, limit int) ([]HistoryEntry, error) {
	q := url.Values{}
	if conversationID != "" {
		q.Set("conversation_id", conversationID)
	}
	q.Set("limit", strconv.Itoa(ClampHistoryLimit(limit)))

	var out []HistoryEntry
	if err := c.do(ctx, http.MethodGet, c.historyPath()+"?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearHistory deletes stored exchanges and returns how many were removed.
func (c *Client) ClearHistory(ctx context.Context, conversationID string) (int, error) {
	path := c.historyPath()
	if conversationID != "" {
		path += "?" + url.Values{"conversation_id": {conversationID}}.Encode()
	}

	var out StatusResponse
	if err := c.do(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return 0, err
	}
	if out.DeletedCount == nil {
		return 0, nil
	}
	return *out.DeletedCount, nil
}

// Chat sends a message to the non-streaming chat endpoint.
func (c *Client) Chat(ctx context.Context, req StreamRequest) (*ChatResponse, error) {
	req = c.withUser(req)

	out := &ChatResponse{}
	if err := c.do(ctx, http.MethodPost, basePath+"/chat", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamChat opens a reply stream. The caller must close the returned body.
// A non-2xx answer is returned as a *StatusError.
func (c *Client) StreamChat(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	req = c.withUser(req)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	c.logger.Debug("opening reply stream",
		"conversation_id", req.ConversationID,
		"history_len", len(req.History),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+basePath+"/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending chat request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newStatusError(http.MethodPost, basePath+"/chat/stream", resp)
	}

	return resp.Body, nil
}

func (c *Client) withUser(req StreamRequest) StreamRequest {
	if req.UserID == "" {
		req.UserID = c.userID
	}
	if req.History == nil {
		req.History = []chat.HistoryEntry{}
	}
	return req
}

func (c *Client) conversationsPath() string {
	return basePath + "/conversations/" + url.PathEscape(c.userID)
}

func (c *Client) conversationPath(id string) string {
	return c.conversationsPath() + "/" + url.PathEscape(id)
}

func (c *Client) historyPath() string {
	return basePath + "/history/" + url.PathEscape(c.userID)
}

// do performs a JSON call bounded by the client timeout and decodes the
// answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(method, path, resp)
	}

	c.logger.Debug("chatbot call", "method", method, "path", path, "status", resp.StatusCode)

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
