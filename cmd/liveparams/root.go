package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/liveparams/internal/config"
	"github.com/aretw0/liveparams/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "liveparams",
	Short: "liveparams edits CAD user parameters live",
	Long: `liveparams is the core of a live parameter panel: it reads and edits the
user parameters of the active design and keeps remote panels in sync, refusing
writes while the host is busy.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "liveparams.yaml", "Config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("document", "", "Document file of the reference host (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for panel fan-out and locking (overrides config)")
}

// loadConfig resolves defaults, the config file, LIVEPARAMS_* variables and
// the flags of cmd, in increasing precedence. The config file is only
// required when --config was given.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path, flags.Changed("config"), flags)
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.New(level), nil
}
