package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agenthands/agentflow/internal/model"
)

// StatusError is a request failure with the HTTP status embedded. This
// layer never retries; retry policy belongs to the caller.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed (%d)", e.Code)
	}
	return fmt.Sprintf("request failed (%d): %s", e.Code, e.Body)
}

// Client talks to the backend agent service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the given backend base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

// ListParams filters the agent directory snapshot.
type ListParams struct {
	OwnerID string
	Limit   int
	Offset  int
}

// ListAgents fetches the full current agent list.
func (c *Client) ListAgents(ctx context.Context, p ListParams) ([]model.Agent, error) {
	q := url.Values{}
	if p.OwnerID != "" {
		q.Set("owner_id", p.OwnerID)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}

	path := "/agents"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var agents []model.Agent
	if err := c.getJSON(ctx, path, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

// GetAgent fetches one agent record.
func (c *Client) GetAgent(ctx context.Context, id string) (model.Agent, error) {
	var a model.Agent
	err := c.getJSON(ctx, "/agents/"+url.PathEscape(id), &a)
	return a, err
}

// MessageParams filters an agent's message history.
type MessageParams struct {
	SessionID string
	Limit     int
	Offset    int
}

// ListMessages fetches the stored chat history for an agent.
func (c *Client) ListMessages(ctx context.Context, agentID string, p MessageParams) ([]model.AgentMessage, error) {
	q := url.Values{}
	if p.SessionID != "" {
		q.Set("session_id", p.SessionID)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}

	path := "/agents/" + url.PathEscape(agentID) + "/messages"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var messages []model.AgentMessage
	if err := c.getJSON(ctx, path, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// PostMessageInput is the payload for storing one chat message.
type PostMessageInput struct {
	SessionID string            `json:"session_id"`
	Role      model.MessageRole `json:"role"`
	Content   string            `json:"content"`
}

// PostMessage stores a chat message and returns the created record.
func (c *Client) PostMessage(ctx context.Context, agentID string, in PostMessageInput) (model.AgentMessage, error) {
	var msg model.AgentMessage

	payload, err := json.Marshal(in)
	if err != nil {
		return msg, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/agents/"+url.PathEscape(agentID)+"/messages", bytes.NewReader(payload))
	if err != nil {
		return msg, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return msg, fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return msg, readStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return msg, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// ChatRequest starts one streamed chat turn.
type ChatRequest struct {
	SessionID    string `json:"session_id"`
	UserInput    string `json:"user_input"`
	OwnerID      string `json:"owner_id"`
	OwnerAgentID string `json:"owner_agent_id"`
}

// Chat posts a chat turn and returns the streaming response body for the
// turn decoder. A non-success response surfaces its body text as the
// turn's error.
func (c *Client) Chat(ctx context.Context, agentID string, in ChatRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/agents/"+url.PathEscape(agentID)+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("start chat: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := readStatusError(resp)
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// HealthResult is the passthrough of the backend liveness probe.
type HealthResult struct {
	StatusCode int
	Body       json.RawMessage
}

// Health proxies the backend /health probe. Network failure yields a fixed
// 502 payload rather than an error.
func (c *Client) Health(ctx context.Context) HealthResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return healthUnavailable()
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return healthUnavailable()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || !json.Valid(body) {
		return healthUnavailable()
	}
	return HealthResult{StatusCode: resp.StatusCode, Body: body}
}

func healthUnavailable() HealthResult {
	return HealthResult{
		StatusCode: http.StatusBadGateway,
		Body:       json.RawMessage(`{"error":"failed to fetch backend /health"}`),
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}
