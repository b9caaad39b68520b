package nexus

import (
	"context"
	"fmt"
	"net/http"
)

// GpuMetrics reports GPU telemetry. Available is false on hosts without a
// supported GPU; the remaining fields are zero in that case.
type GpuMetrics struct {
	Available    bool    `json:"available"`
	Vendor       string  `json:"vendor"`
	VramTotalGB  float64 `json:"vram_total_gb"`
	VramUsedGB   float64 `json:"vram_used_gb"`
	VramPercent  float64 `json:"vram_percent"`
	TemperatureC float64 `json:"temperature_c"`
	UsagePercent float64 `json:"usage_percent"`
}

// CpuMetrics reports CPU telemetry.
type CpuMetrics struct {
	UsagePercent float64 `json:"usage_percent"`
	Cores        int     `json:"cores"`
}

// MemoryMetrics reports host RAM usage.
type MemoryMetrics struct {
	TotalGB     float64 `json:"total_gb"`
	UsedGB      float64 `json:"used_gb"`
	AvailableGB float64 `json:"available_gb"`
	Percent     float64 `json:"percent"`
}

// UptimeMetrics reports host uptime.
type UptimeMetrics struct {
	Seconds   float64 `json:"seconds"`
	Formatted string  `json:"formatted"`
	Days      int     `json:"days"`
}

// SystemMetrics is the full telemetry snapshot.
type SystemMetrics struct {
	GPU    GpuMetrics    `json:"gpu"`
	CPU    CpuMetrics    `json:"cpu"`
	Memory MemoryMetrics `json:"memory"`
	Uptime UptimeMetrics `json:"uptime"`
}

// Metrics fetches the full system telemetry snapshot.
func (c *Client) Metrics(ctx context.Context) (SystemMetrics, error) {
	var m SystemMetrics
	if err := c.doJSON(ctx, http.MethodGet, "/metrics", nil, &m); err != nil {
		return SystemMetrics{}, fmt.Errorf("fetch metrics: %w", err)
	}
	return m, nil
}

// GPUMetrics fetches GPU telemetry only.
func (c *Client) GPUMetrics(ctx context.Context) (GpuMetrics, error) {
	var m GpuMetrics
	if err := c.doJSON(ctx, http.MethodGet, "/metrics/gpu", nil, &m); err != nil {
		return GpuMetrics{}, fmt.Errorf("fetch gpu metrics: %w", err)
	}
	return m, nil
}
