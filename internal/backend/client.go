// ABOUTME: HTTP client for the remote conversation-history and generation API
// ABOUTME: The engine consumes this as a fallible remote source of truth

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the backend over HTTP/JSON. Timeouts come from the
// transport; the engine adds no timeout layer of its own.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a backend client for the given base URL.
// Pass nil logger for default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "backend"),
	}
}

// FetchHistory returns the remote message history for a conversation.
// An empty or absent messages array decodes to an empty history.
func (c *Client) FetchHistory(ctx context.Context, conversationID string) (*History, error) {
	endpoint := c.baseURL + "/api/chat/history/" + url.PathEscape(conversationID)

	raw, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var hist History
	if err := json.Unmarshal(raw, &hist); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &hist, nil
}

// SendChat posts a user message and decodes the response into a tagged
// ChatResult. conversationID may be empty for a new conversation.
func (c *Client) SendChat(ctx context.Context, text, conversationID string) (ChatResult, error) {
	body, err := json.Marshal(sendRequest{
		Message:        text,
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending chat message: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading send response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return decodeChatResult(raw)
}

// FetchJobStatus returns the current status of a generation job.
func (c *Client) FetchJobStatus(ctx context.Context, jobID string) (*JobStatusResult, error) {
	endpoint := c.baseURL + "/api/jobs/" + url.PathEscape(jobID) + "/status"

	raw, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var status JobStatusResult
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if status.Status == "" {
		return nil, fmt.Errorf("%w: missing job status", ErrMalformedResponse)
	}
	return &status, nil
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, c.baseURL+"/health")
	return err
}

// get issues a GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
