package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/remoteui/internal/config"
	"github.com/aretw0/remoteui/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "remoteui",
	Short: "remoteui serves server-driven UI trees to remote hosts",
	Long: `remoteui renders application state into a component tree that thin
hosts fetch over HTTP, applies the actions they post back, and swaps the
rendering code at runtime without losing state.`,
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
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
}

// addScriptFlags registers the flags selecting the rendering code.
func addScriptFlags(cmd *cobra.Command) {
	cmd.Flags().String("scripts", "", "Directory of *.js render scripts (default: built-in screen)")
	cmd.Flags().Duration("script-timeout", 2*time.Second, "Upper bound for one script evaluation")
}

// addRedisFlags registers the flags of the Redis reload channel.
func addRedisFlags(cmd *cobra.Command) {
	cmd.Flags().String("redis-addr", "", "Redis address for reload requests (empty disables)")
	cmd.Flags().String("redis-channel", "remoteui:reload", "Redis channel for reload requests")
}

// setup loads the configuration for cmd and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format), nil
}
