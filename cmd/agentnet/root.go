package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentnet/config"
)

var rootCmd = &cobra.Command{
	Use:   "agentnet",
	Short: "Agent networks and step workflows",
	Long: `agentnet coordinates a network of specialist agents and runs typed
step workflows. Credentials are read from the environment, .env.development
or .env, and an optional YAML file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure. An interrupt
// cancels the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("provider", "", "Model provider (anthropic, openai)")
	rootCmd.PersistentFlags().String("model", "", "Model identifier")
	rootCmd.PersistentFlags().String("search", "", "Search backend (tavily, brave)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
}

// loadConfig reads the configuration and applies explicit flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(func(o *config.Options) {
		o.File = path
	})
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"provider", &cfg.Provider},
		{"model", &cfg.Model},
		{"search", &cfg.SearchBackend},
		{"log-level", &cfg.LogLevel},
		{"metrics-addr", &cfg.MetricsAddr},
	}
	for _, o := range overrides {
		if v, _ := cmd.Flags().GetString(o.flag); v != "" {
			*o.dst = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
