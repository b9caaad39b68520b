// Package render holds the terminal styling shared by the CLI commands.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	IDStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	OKStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	ErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// StatusBadge styles a service or container status string.
func StatusBadge(status string) string {
	switch strings.ToLower(status) {
	case "online", "running", "healthy", "success", "idle":
		return OKStyle.Render(status)
	case "offline", "exited", "stopped":
		return DimStyle.Render(status)
	case "error", "failed", "busy":
		return ErrStyle.Render(status)
	default:
		return WarnStyle.Render(status)
	}
}

// Gauge renders a simple percentage bar for telemetry output.
func Gauge(label string, percent float64, width int) string {
	if width <= 0 {
		width = 20
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := OKStyle
	switch {
	case percent >= 90:
		style = ErrStyle
	case percent >= 70:
		style = WarnStyle
	}
	return fmt.Sprintf("%-8s %s %5.1f%%", label, style.Render(bar), percent)
}
