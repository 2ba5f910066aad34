package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/internal/config"
	"github.com/spf13/cobra"
)

// cfg is loaded once before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Funnel runs lead-capture questionnaires",
	Long: `Funnel runs multi-step questionnaires that end in a contact form.
Run them in the terminal, serve them over HTTP or MCP, and keep the submissions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "funnel.yaml", "Configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
}

// commandLogger writes to Stderr at the configured level.
func commandLogger() (*slog.Logger, error) {
	return cli.CreateLogger(cfg.LogLevel, false, false)
}

// openStack builds the configured backends for a non-interactive command.
func openStack(cmd *cobra.Command, opts ...cli.StackOption) (*cli.Stack, error) {
	logger, err := commandLogger()
	if err != nil {
		return nil, err
	}
	return cli.Build(cmd.Context(), cfg, logger, opts...)
}
