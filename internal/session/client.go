package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Client performs CRUD operations against the remote conversation archive.
// It holds a read-through cache of session summaries that survives failed
// refreshes, so a flaky backend never blanks an already-fetched list.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	sessions []Session
}

// SaveResult is returned by the archive after a successful save.
type SaveResult struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// NewClient creates an archive client for the given backend base URL.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Save transmits a conversation snapshot to the archive. On success the
// cached session list is refreshed; a refresh failure is logged but does not
// fail the save. On save failure the error is returned to the caller and the
// cached list is untouched.
func (c *Client) Save(ctx context.Context, messages []Message, name string) (SaveResult, error) {
	payload := struct {
		Messages []Message `json:"messages"`
		Name     string    `json:"name,omitempty"`
	}{Messages: messages, Name: name}

	var result SaveResult
	if err := c.doJSON(ctx, http.MethodPost, "/chat/save", payload, &result); err != nil {
		return SaveResult{}, fmt.Errorf("save session: %w", err)
	}

	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn("session list refresh after save failed", "error", err)
	}

	c.logger.Info("session saved", "session_id", result.SessionID, "name", result.Name)
	return result, nil
}

// Refresh fetches all session summaries from the archive, replacing the
// cache on success. On failure the existing cache is kept as-is.
func (c *Client) Refresh(ctx context.Context) error {
	var resp struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions", nil, &resp); err != nil {
		c.logger.Warn("fetch sessions failed", "error", err)
		return fmt.Errorf("fetch sessions: %w", err)
	}

	c.mu.Lock()
	c.sessions = resp.Sessions
	c.mu.Unlock()
	return nil
}

// Sessions returns a copy of the cached session list.
func (c *Client) Sessions() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Session, len(c.sessions))
	copy(out, c.sessions)
	return out
}

// Load fetches the full message history of a session.
func (c *Client) Load(ctx context.Context, sessionID string) ([]Message, error) {
	var resp struct {
		Messages []Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/chat/load/"+sessionID, nil, &resp); err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return resp.Messages, nil
}

// Delete removes a session from the archive. The cached list entry is
// dropped only after the remote call has succeeded.
func (c *Client) Delete(ctx context.Context, sessionID string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/chat/session/"+sessionID, nil, nil); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	c.mu.Lock()
	kept := c.sessions[:0]
	for _, s := range c.sessions {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	c.sessions = kept
	c.mu.Unlock()

	c.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

// doJSON sends a request with an optional JSON body and decodes the JSON
// response into result when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("archive error: %s - %s", resp.Status, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
