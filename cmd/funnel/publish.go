package main

import (
	"fmt"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/schema"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <file>",
	Short: "Publish a funnel on the persistence service",
	Long:  `Validates the funnel, stores it in the database (database_url) and prints its id and player link.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")

		src, err := cli.ResolveSource(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		if title == "" {
			title = src.Name
		}

		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()
		return publishDocument(cmd, stack, title, description, src.Document)
	},
}

func publishDocument(cmd *cobra.Command, stack *cli.Stack, title, description string, doc *domain.Document) error {
	if stack.Publisher == nil {
		return fmt.Errorf("database url: %w", cli.ErrNotConfigured)
	}
	if err := schema.Validate(doc); err != nil {
		return err
	}
	published, err := stack.Publisher.Publish(cmd.Context(), title, description, doc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Published '%s' as %s\n", published.Title, published.ID)
	if cfg.ShareBaseURL != "" {
		link, err := withQuery(cfg.ShareBaseURL, "funnelId", published.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, link)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().String("title", "", "Funnel title (defaults to the file name)")
	publishCmd.Flags().String("description", "", "Funnel description")
}
