package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "nope.yaml")} {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%q): %v", path, err)
		}
		if cfg != Default() {
			t.Errorf("Load(%q) = %+v, want defaults", path, cfg)
		}
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
api_base: http://nexus.lan:8090
model: llama3
debug: true
watch:
  metrics_seconds: 2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "http://nexus.lan:8090" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.Model != "llama3" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Watch.MetricsSeconds != 2 {
		t.Errorf("Watch.MetricsSeconds = %d, want 2", cfg.Watch.MetricsSeconds)
	}
	// Untouched fields keep their defaults.
	if cfg.ChatWSURL != DefaultChatWSURL {
		t.Errorf("ChatWSURL = %q, want default", cfg.ChatWSURL)
	}
	if cfg.Watch.HealthSeconds != 10 {
		t.Errorf("Watch.HealthSeconds = %d, want default 10", cfg.Watch.HealthSeconds)
	}
}

func TestLoadRefillsBlankedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
api_base: ""
model: ""
watch:
  prices_seconds: 0
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != DefaultAPIBase {
		t.Errorf("APIBase = %q, want default refilled", cfg.APIBase)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want default refilled", cfg.Model)
	}
	if cfg.Watch.PricesSeconds != 60 {
		t.Errorf("Watch.PricesSeconds = %d, want default refilled", cfg.Watch.PricesSeconds)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api_base: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}
