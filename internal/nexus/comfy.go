package nexus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ComfyQueueStatus summarizes the image-generation queue.
type ComfyQueueStatus struct {
	Running int
	Pending int
}

// ComfyPromptResponse is returned when a workflow is accepted.
type ComfyPromptResponse struct {
	PromptID string `json:"prompt_id"`
	Number   int    `json:"number"`
}

// ComfyImage locates one generated image on the ComfyUI host.
type ComfyImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// ComfyQueue fetches the current queue depth from the backend's ComfyUI proxy.
func (c *Client) ComfyQueue(ctx context.Context) (ComfyQueueStatus, error) {
	var resp struct {
		QueueRunning []json.RawMessage `json:"queue_running"`
		QueuePending []json.RawMessage `json:"queue_pending"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/comfyui/queue", nil, &resp); err != nil {
		return ComfyQueueStatus{}, fmt.Errorf("fetch comfy queue: %w", err)
	}
	return ComfyQueueStatus{
		Running: len(resp.QueueRunning),
		Pending: len(resp.QueuePending),
	}, nil
}

// ComfyPrompt submits a workflow graph for generation. clientID correlates
// the submission with later history lookups and may be empty.
func (c *Client) ComfyPrompt(ctx context.Context, workflow json.RawMessage, clientID string) (ComfyPromptResponse, error) {
	payload := struct {
		Prompt   json.RawMessage `json:"prompt"`
		ClientID string          `json:"client_id,omitempty"`
	}{Prompt: workflow, ClientID: clientID}

	var resp ComfyPromptResponse
	if err := c.doJSON(ctx, http.MethodPost, "/comfyui/prompt", payload, &resp); err != nil {
		return ComfyPromptResponse{}, fmt.Errorf("submit comfy prompt: %w", err)
	}
	c.logger.Info("comfy prompt submitted", "prompt_id", resp.PromptID)
	return resp, nil
}

// ComfyHistory returns the images produced for a prompt, flattened across
// output nodes. An accepted-but-unfinished prompt yields an empty slice.
func (c *Client) ComfyHistory(ctx context.Context, promptID string) ([]ComfyImage, error) {
	var resp map[string]struct {
		Outputs map[string]struct {
			Images []ComfyImage `json:"images"`
		} `json:"outputs"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/comfyui/history/"+url.PathEscape(promptID), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch comfy history %s: %w", promptID, err)
	}

	var images []ComfyImage
	for _, entry := range resp {
		for _, out := range entry.Outputs {
			images = append(images, out.Images...)
		}
	}
	return images, nil
}
