package nexus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Workflow is one n8n workflow known to the backend proxy.
type Workflow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Workflows lists the automation workflows.
func (c *Client) Workflows(ctx context.Context) ([]Workflow, error) {
	var resp struct {
		Data []Workflow `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/n8n/workflows", nil, &resp); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return resp.Data, nil
}

// TriggerWebhook fires a workflow's webhook trigger node. The raw response
// body is returned since webhook outputs are workflow-defined.
func (c *Client) TriggerWebhook(ctx context.Context, webhookPath string, payload map[string]interface{}) (json.RawMessage, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/n8n/webhook/"+url.PathEscape(webhookPath), payload, &raw); err != nil {
		return nil, fmt.Errorf("trigger webhook %s: %w", webhookPath, err)
	}
	c.logger.Info("workflow webhook triggered", "path", webhookPath)
	return raw, nil
}

// ActivateWorkflow enables a workflow so its webhook becomes available.
func (c *Client) ActivateWorkflow(ctx context.Context, workflowID string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/n8n/workflows/"+url.PathEscape(workflowID)+"/activate", nil, nil); err != nil {
		return fmt.Errorf("activate workflow %s: %w", workflowID, err)
	}
	c.logger.Info("workflow activated", "id", workflowID)
	return nil
}

// DeactivateWorkflow disables a workflow.
func (c *Client) DeactivateWorkflow(ctx context.Context, workflowID string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/n8n/workflows/"+url.PathEscape(workflowID)+"/deactivate", nil, nil); err != nil {
		return fmt.Errorf("deactivate workflow %s: %w", workflowID, err)
	}
	c.logger.Info("workflow deactivated", "id", workflowID)
	return nil
}
