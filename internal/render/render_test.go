package render

import (
	"strings"
	"testing"
)

func TestGaugeClampsPercent(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		want    string
	}{
		{"negative clamps to zero", -5, "0.0%"},
		{"over one hundred clamps", 140, "100.0%"},
		{"normal value passes through", 42.5, "42.5%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Gauge("CPU", tt.percent, 10)
			if !strings.Contains(got, tt.want) {
				t.Errorf("Gauge = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestGaugeBarWidth(t *testing.T) {
	got := Gauge("RAM", 50, 10)
	filled := strings.Count(got, "█")
	empty := strings.Count(got, "░")
	if filled != 5 || empty != 5 {
		t.Errorf("Gauge bar = %d filled / %d empty, want 5/5 at 50%% of width 10", filled, empty)
	}
}

func TestStatusBadgePreservesText(t *testing.T) {
	for _, status := range []string{"running", "exited", "error", "unknown-thing"} {
		if got := StatusBadge(status); !strings.Contains(got, status) {
			t.Errorf("StatusBadge(%q) = %q, lost the status text", status, got)
		}
	}
}
