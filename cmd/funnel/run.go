package main

import (
	"github.com/aretw0/funnel/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <file | share-link | funnel:id>",
	Short: "Run a funnel in the terminal",
	Long: `Runs a funnel interactively. The source is a YAML or JSON file, a share link,
or "funnel:<id>" for a funnel published on the persistence service.

With --session the run is saved after every step and resumed on the next call.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{Source: args[0]}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Debug, _ = cmd.Flags().GetBool("debug")
		opts.Stdin = cmd.InOrStdin()
		opts.Stdout = cmd.OutOrStdout()
		return cli.Execute(cfg, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Save and resume the run under this id")
	runCmd.Flags().Bool("fresh", false, "Discard the saved session before starting")
	runCmd.Flags().Bool("headless", false, "Run in headless mode (no confirmations, plain output)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().BoolP("watch", "w", false, "Run in development mode with hot-reload")
	runCmd.Flags().Bool("debug", false, "Log lifecycle events to Stderr")
}
