package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/GoSim-25-26J-441/gansim/pkg/config"
	"github.com/GoSim-25-26J-441/gansim/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gansim",
		Short: "Toy GAN training simulator",
		Long: `gansim plays a generator against a discriminator on a single scalar.

Each step the generator forges a value, the discriminator judges it, and the
loser nudges its skill. Run steps locally, read the guided walkthrough, inspect
a step journal, or drive a running simd daemon over gRPC.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogger(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config (defaults built in)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newWalkthroughCmd(),
		newJournalCmd(),
		newConfigCmd(),
		newRemoteCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// configureLogger installs the CLI logger. An explicit --log-level wins;
// otherwise a --config file supplies log_level and log_format.
func configureLogger(cmd *cobra.Command) error {
	level, _ := cmd.Flags().GetString("log-level")
	format := "text"
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format = cfg.LogFormat
		if !cmd.Flags().Changed("log-level") {
			level = cfg.LogLevel
		}
	}
	logger.SetDefault(logger.NewFormat(format, level, cmd.ErrOrStderr()))
	return nil
}

// loadConfig reads --config, falling back to built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
