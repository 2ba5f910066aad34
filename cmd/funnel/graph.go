package main

import (
	"fmt"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file | share-link | funnel:id>",
	Short: "Export the funnel graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the steps and their branches.
With --session, the steps visited by that session are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		funnels, closeFn, err := funnelSource(cmd, args)
		if err != nil {
			return err
		}
		defer closeFn()

		src, err := cli.ResolveSource(cmd.Context(), args[0], funnels)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if sessionID != "" {
			stack, err := openStack(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			snap, err := stack.Sessions.Load(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			overlay = graph.OverlayFrom(snap.Navigation)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(src.Document, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the path of this session")
}
