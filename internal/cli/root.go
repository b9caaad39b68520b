// Package cli implements the nexusctl command tree.
package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nexusctl/internal/config"
	"nexusctl/internal/nexus"
	"nexusctl/internal/telemetry"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	flagConfig  string
	flagAPIBase string
	flagWSURL   string
	flagDebug   bool
)

// app bundles the collaborators most commands need.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	api    *nexus.Client
}

// newApp loads configuration, applies flag overrides and wires the backend
// client and logger.
func newApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagAPIBase != "" {
		cfg.APIBase = flagAPIBase
	}
	if flagWSURL != "" {
		cfg.ChatWSURL = flagWSURL
	}
	if flagDebug {
		cfg.Debug = true
	}

	logger, err := telemetry.InitLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	api, err := nexus.NewClient(cfg.APIBase, &http.Client{Timeout: 30 * time.Second}, logger)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, api: api}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nexusctl",
		Short: "Terminal console for the NEXUS home-lab backend",
		Long: "nexusctl talks to a running NEXUS backend: chat with the agent swarm,\n" +
			"manage containers, read system telemetry, trigger automation workflows,\n" +
			"queue image generation and track crypto market data.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&flagAPIBase, "api", "", "Backend base URL (default "+config.DefaultAPIBase+")")
	cmd.PersistentFlags().StringVar(&flagWSURL, "ws", "", "Agent WebSocket URL (default "+config.DefaultChatWSURL+")")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newContainersCmd())
	cmd.AddCommand(newMetricsCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newEventsCmd())
	cmd.AddCommand(newWorkflowsCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newMarketCmd())
	cmd.AddCommand(newWatchCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nexusctl %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}
