package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults match the backend's standard local deployment.
const (
	DefaultAPIBase   = "http://localhost:8090"
	DefaultChatWSURL = "ws://localhost:8090/ws/chat"
	DefaultModel     = "nexus-swarm"
	DefaultStorePath = "nexusctl.db"
)

// Config holds application configuration
type Config struct {
	APIBase   string `yaml:"api_base"`    // Backend base URL
	ChatWSURL string `yaml:"chat_ws_url"` // Agent WebSocket endpoint
	Model     string `yaml:"model"`       // Default model identifier for chat tasks
	StorePath string `yaml:"store_path"`  // Local SQLite path for settings and wallets
	Debug     bool   `yaml:"debug"`

	Watch WatchConfig `yaml:"watch"`
}

// WatchConfig sets the polling cadence of the watch command, in seconds.
type WatchConfig struct {
	MetricsSeconds int `yaml:"metrics_seconds"`
	HealthSeconds  int `yaml:"health_seconds"`
	PricesSeconds  int `yaml:"prices_seconds"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		APIBase:   DefaultAPIBase,
		ChatWSURL: DefaultChatWSURL,
		Model:     DefaultModel,
		StorePath: DefaultStorePath,
		Watch: WatchConfig{
			MetricsSeconds: 5,
			HealthSeconds:  10,
			PricesSeconds:  60,
		},
	}
}

// Load reads a YAML config file, layering it over defaults. An empty path or
// a missing file yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Re-fill anything the file explicitly blanked.
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.ChatWSURL == "" {
		cfg.ChatWSURL = DefaultChatWSURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.StorePath == "" {
		cfg.StorePath = DefaultStorePath
	}
	if cfg.Watch.MetricsSeconds <= 0 {
		cfg.Watch.MetricsSeconds = 5
	}
	if cfg.Watch.HealthSeconds <= 0 {
		cfg.Watch.HealthSeconds = 10
	}
	if cfg.Watch.PricesSeconds <= 0 {
		cfg.Watch.PricesSeconds = 60
	}
	return cfg, nil
}
