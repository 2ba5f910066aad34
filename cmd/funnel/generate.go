package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/pkg/schema"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate a funnel from a description",
	Long: `Asks the configured generative model (genai.api_key) for a funnel and prints it as YAML.
With --publish the result is also published on the persistence service.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		publish, _ := cmd.Flags().GetBool("publish")
		title, _ := cmd.Flags().GetString("title")

		stack, err := openStack(cmd, cli.WithGenerator())
		if err != nil {
			return err
		}
		defer stack.Close()
		if stack.Generator == nil {
			return fmt.Errorf("genai api key: %w", cli.ErrNotConfigured)
		}

		prompt := strings.Join(args, " ")
		doc, err := stack.Generator.GenerateFunnel(cmd.Context(), prompt)
		if err != nil {
			return err
		}

		data, err := schema.EncodeYAML(doc)
		if err != nil {
			return err
		}
		if output != "" {
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			stack.Logger.Info("Funnel written", "path", output, "steps", doc.Len())
		} else if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}

		if publish {
			if title == "" {
				title = prompt
			}
			return publishDocument(cmd, stack, title, "", doc)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("output", "o", "", "Write the YAML to this file")
	generateCmd.Flags().Bool("publish", false, "Publish the generated funnel")
	generateCmd.Flags().String("title", "", "Title used with --publish (defaults to the prompt)")
}
