package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/rngsync/internal/cli"
	"github.com/aretw0/rngsync/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rngsync",
	Short: "rngsync follows the random numbers produced across a network of nodes",
	Long: `rngsync keeps a local history of every random number a node announces on its
push channel, and can ask any peer to generate a new one.`,
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
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML profile with rngsync settings")
	flags.String("env", "", "Path to a .env file (defaults to ./.env when present)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("node", "", "Base URL of the node")
	flags.String("push", "", "Push channel endpoint (derived from --node when empty)")
	flags.String("node-id", "", "Local node identity")
}

// loadConfig resolves the configuration and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	flags := cmd.Flags()
	profile, _ := flags.GetString("config")
	envFile, _ := flags.GetString("env")

	cfg, err := config.LoadFiles(profile, envFile)
	if err != nil {
		return nil, nil, err
	}

	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("node-id") {
		cfg.NodeID, _ = flags.GetString("node-id")
	}
	if flags.Changed("node") {
		cfg.NodeURL, _ = flags.GetString("node")
		if cfg.PushURL, err = config.DerivePushURL(cfg.NodeURL); err != nil {
			return nil, nil, err
		}
	}
	if flags.Changed("push") {
		cfg.PushURL, _ = flags.GetString("push")
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, cli.CreateLogger(cfg.LogLevel), nil
}
