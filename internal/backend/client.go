// Package backend talks to the external retrieval-augmented answering
// service over HTTP and maps its payload onto the canonical response
// the chat session consumes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tpatole/rag-helper-bot/internal/chat"
)

const defaultTimeout = 120 * time.Second

// ClientOption configures the client.
type ClientOption func(*Client)

// WithAPIKey sets a bearer token sent with every request.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout. Ignored when a custom HTTP
// client is supplied.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client is the HTTP client for the answering backend.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// queryRequest is the wire format of one backend call.
type queryRequest struct {
	Query       string        `json:"query"`
	ChatHistory []historyTurn `json:"chat_history"`
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// queryResponse tolerates the backend's loose payloads: answer may be
// any JSON value and context items may omit their source.
type queryResponse struct {
	Answer  any           `json:"answer"`
	Context []contextItem `json:"context"`
}

type contextItem struct {
	Source *string `json:"source"`
}

// Answer sends one query plus the prior turn history and returns the
// canonical response. Only the answer and context fields of the
// payload are consumed; everything else is ignored.
func (c *Client) Answer(ctx context.Context, query string, history []chat.Turn) (*chat.Response, error) {
	wireHistory := make([]historyTurn, 0, len(history))
	for _, turn := range history {
		wireHistory = append(wireHistory, historyTurn{
			Role:    string(turn.Role),
			Content: turn.Text,
		})
	}

	body, err := json.Marshal(queryRequest{Query: query, ChatHistory: wireHistory})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend error (status %d): %s", resp.StatusCode, string(respBody))
	}

	// UseNumber keeps numeric answers in their literal form so the
	// coercion step renders "42" rather than a float approximation.
	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	var wire queryResponse
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return toCanonical(&wire), nil
}

func toCanonical(wire *queryResponse) *chat.Response {
	out := &chat.Response{Answer: wire.Answer}
	for _, item := range wire.Context {
		// Keep absent and present-but-empty sources distinguishable;
		// only a truly missing source gets the sentinel downstream.
		out.Context = append(out.Context, chat.ContextItem{Source: item.Source})
	}
	return out
}
