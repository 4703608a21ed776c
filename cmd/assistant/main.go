package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sushant23/ai-agent-demo-sub001/internal/observability"
	"github.com/sushant23/ai-agent-demo-sub001/pkg/config"
	"go.uber.org/zap"
)

var (
	// Version information (set via ldflags)
	Version = "dev"

	// Global flags
	configFile string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Business assistant for online sellers",
	Long: `assistant answers business questions (sales, inventory, SEO, pricing,
marketing) by routing each request to one of five workflow patterns:
sequential chaining, routing, parallel fan-out, orchestrator-workers and
evaluator-optimizer.

Run "assistant serve" for the HTTP API or "assistant chat" for an
interactive session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configFile != "" {
			cfg, err = config.LoadConfig(configFile)
			if err != nil {
				return err
			}
		} else {
			cfg = config.Default()
			cfg.ApplyEnv()
		}
		if logLevel != "" {
			cfg.Observability.LogLevel = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, err = observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("CONFIG_FILE"), "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, askCmd, chatCmd, selectCmd, initConfigCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
