package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// TaskRunner performs a one-shot request/response exchange with the agent.
// The relay uses it only when the duplex channel is unavailable.
type TaskRunner interface {
	Run(ctx context.Context, task, model string) (string, error)
}

// HTTPFallback runs tasks through POST /run_task on the backend. It never
// retries; a failure here means both channels are down and the relay
// surfaces that to the user.
type HTTPFallback struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPFallback creates the one-shot HTTP task runner.
func NewHTTPFallback(baseURL string, httpClient *http.Client, logger *slog.Logger) (*HTTPFallback, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &HTTPFallback{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Run submits a task and returns the complete assistant reply.
func (f *HTTPFallback) Run(ctx context.Context, task, model string) (string, error) {
	jsonData, err := json.Marshal(TaskRequest{Task: task, Model: model})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/run_task", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("agent error: %s - %s", resp.Status, string(body))
	}

	var result struct {
		Status string `json:"status"`
		Result string `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if result.Error != "" || result.Status == "FAILED" {
		return "", fmt.Errorf("task failed: %s", result.Error)
	}

	f.logger.Info("task completed via HTTP fallback", "model", model)
	return result.Result, nil
}
