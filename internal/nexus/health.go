package nexus

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// HealthStatus maps service names to "online", "offline" or "error".
type HealthStatus struct {
	Services  map[string]string `json:"services"`
	Timestamp float64           `json:"timestamp"`
}

// AgentInfo describes one agent registered with the swarm.
type AgentInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Role  string `json:"role,omitempty"`
}

// Status is the backend's task and agent state.
type Status struct {
	Status           string      `json:"status"`
	ActiveModels     []string    `json:"active_models"`
	IsFallbackActive bool        `json:"is_fallback_active"`
	Agents           []AgentInfo `json:"agents"`
	Error            string      `json:"error,omitempty"`
}

// Event is one entry in the backend's event feed.
type Event struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Level     string `json:"level"`
	Title     string `json:"title"`
	Message   string `json:"message"`
}

// Health fetches per-service health.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var h HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return HealthStatus{}, fmt.Errorf("fetch health: %w", err)
	}
	return h, nil
}

// Status fetches the backend's agent and task state.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var s Status
	if err := c.doJSON(ctx, http.MethodGet, "/status", nil, &s); err != nil {
		return Status{}, fmt.Errorf("fetch status: %w", err)
	}
	return s, nil
}

// Events fetches recent backend events, newest first. eventType filters by
// type when non-empty.
func (c *Client) Events(ctx context.Context, limit int, eventType string) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	path := "/events?limit=" + strconv.Itoa(limit)
	if eventType != "" {
		path += "&event_type=" + eventType
	}
	var resp struct {
		Events []Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	return resp.Events, nil
}
