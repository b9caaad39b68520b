package cli

import (
	"fmt"

	"nexusctl/internal/render"

	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	var gpuOnly bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show system telemetry (GPU, CPU, RAM, uptime)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if gpuOnly {
				gpu, err := a.api.GPUMetrics(cmd.Context())
				if err != nil {
					return err
				}
				printGPU(gpu.Available, gpu.Vendor, gpu.UsagePercent, gpu.VramPercent, gpu.VramUsedGB, gpu.VramTotalGB, gpu.TemperatureC)
				return nil
			}

			m, err := a.api.Metrics(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(render.HeaderStyle.Render("System Telemetry"))
			printGPU(m.GPU.Available, m.GPU.Vendor, m.GPU.UsagePercent, m.GPU.VramPercent, m.GPU.VramUsedGB, m.GPU.VramTotalGB, m.GPU.TemperatureC)
			fmt.Println(render.Gauge("CPU", m.CPU.UsagePercent, 20) + render.DimStyle.Render(fmt.Sprintf("  (%d cores)", m.CPU.Cores)))
			fmt.Println(render.Gauge("RAM", m.Memory.Percent, 20) + render.DimStyle.Render(fmt.Sprintf("  (%.1f/%.1f GB)", m.Memory.UsedGB, m.Memory.TotalGB)))
			fmt.Printf("Uptime:  %s\n", m.Uptime.Formatted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&gpuOnly, "gpu", false, "GPU metrics only")
	return cmd
}

func printGPU(available bool, vendor string, usage, vramPct, vramUsed, vramTotal, temp float64) {
	if !available {
		fmt.Println("GPU:     " + render.DimStyle.Render("not available"))
		return
	}
	fmt.Println(render.Gauge("GPU", usage, 20) + render.DimStyle.Render("  ("+vendor+")"))
	fmt.Println(render.Gauge("VRAM", vramPct, 20) + render.DimStyle.Render(fmt.Sprintf("  (%.1f/%.1f GB, %.0f°C)", vramUsed, vramTotal, temp)))
}

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show per-service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			h, err := a.api.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(render.HeaderStyle.Render("Service Health"))
			for name, status := range h.Services {
				fmt.Printf("%-20s %s\n", name, render.StatusBadge(status))
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show agent swarm status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			s, err := a.api.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Task state: %s\n", render.StatusBadge(s.Status))
			if s.IsFallbackActive {
				fmt.Println(render.WarnStyle.Render("VRAM fallback active"))
			}
			if len(s.ActiveModels) > 0 {
				fmt.Printf("Active models: %v\n", s.ActiveModels)
			}
			for _, agent := range s.Agents {
				role := agent.Role
				if role == "" {
					role = "Worker"
				}
				fmt.Printf("  %-20s %-10s %s\n", agent.Name, role, render.DimStyle.Render(agent.Model))
			}
			return nil
		},
	}
}

func newEventsCmd() *cobra.Command {
	var limit int
	var eventType string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent backend events",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			events, err := a.api.Events(cmd.Context(), limit, eventType)
			if err != nil {
				return err
			}
			for _, e := range events {
				fmt.Printf("%s [%s] %s: %s\n",
					render.DimStyle.Render(e.Timestamp), render.StatusBadge(e.Level), e.Title, e.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum events to fetch")
	cmd.Flags().StringVar(&eventType, "type", "", "Filter by event type")
	return cmd
}
