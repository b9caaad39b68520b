package nexus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Container describes one Docker container managed by the backend.
type Container struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	IsRunning bool   `json:"is_running"`
	Ports     string `json:"ports"`
	Image     string `json:"image"`
}

// ContainersResponse wraps the container listing.
type ContainersResponse struct {
	Containers []Container `json:"containers"`
	Total      int         `json:"total"`
}

// Containers lists all containers with their status.
func (c *Client) Containers(ctx context.Context) (ContainersResponse, error) {
	var resp ContainersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/containers", nil, &resp); err != nil {
		return ContainersResponse{}, fmt.Errorf("list containers: %w", err)
	}
	return resp, nil
}

// StartContainer starts a container by name.
func (c *Client) StartContainer(ctx context.Context, name string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/containers/"+url.PathEscape(name)+"/start", nil, nil); err != nil {
		return fmt.Errorf("start container %s: %w", name, err)
	}
	c.logger.Info("container started", "name", name)
	return nil
}

// StopContainer stops a container by name.
func (c *Client) StopContainer(ctx context.Context, name string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/containers/"+url.PathEscape(name)+"/stop", nil, nil); err != nil {
		return fmt.Errorf("stop container %s: %w", name, err)
	}
	c.logger.Info("container stopped", "name", name)
	return nil
}

// RestartContainer restarts a container by name.
func (c *Client) RestartContainer(ctx context.Context, name string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/containers/"+url.PathEscape(name)+"/restart", nil, nil); err != nil {
		return fmt.Errorf("restart container %s: %w", name, err)
	}
	c.logger.Info("container restarted", "name", name)
	return nil
}

// ContainerLogs fetches the last tail lines of a container's log output.
func (c *Client) ContainerLogs(ctx context.Context, name string, tail int) (string, error) {
	if tail <= 0 {
		tail = 50
	}
	var resp struct {
		Logs string `json:"logs"`
	}
	path := "/containers/" + url.PathEscape(name) + "/logs?tail=" + strconv.Itoa(tail)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("container logs %s: %w", name, err)
	}
	return resp.Logs, nil
}
