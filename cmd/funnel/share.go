package main

import (
	"fmt"
	"net/url"
	"os"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/pkg/adapters/share"
	"github.com/aretw0/funnel/pkg/schema"
	"github.com/spf13/cobra"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Encode funnels into links and read them back",
}

var shareEncodeCmd = &cobra.Command{
	Use:   "encode <file>",
	Short: "Print a link that carries the funnel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, _ := cmd.Flags().GetString("base")
		if !cmd.Flags().Changed("base") && cfg.ShareBaseURL != "" {
			base = cfg.ShareBaseURL
		}
		funnelID, _ := cmd.Flags().GetString("funnel-id")

		doc, err := schema.DecodeFile(args[0])
		if err != nil {
			return err
		}
		if err := schema.Validate(doc); err != nil {
			return err
		}
		if funnelID != "" {
			base, err = withQuery(base, "funnelId", funnelID)
			if err != nil {
				return err
			}
		}
		link, err := share.EncodeURL(base, doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

var shareDecodeCmd = &cobra.Command{
	Use:   "decode <link>",
	Short: "Print the funnel carried by a link as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		src, err := cli.ResolveSource(cmd.Context(), args[0], nil)
		if err != nil {
			return err
		}
		data, err := schema.EncodeYAML(src.Document)
		if err != nil {
			return err
		}
		if output != "" {
			return os.WriteFile(output, data, 0o644)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func withQuery(raw, key, value string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.AddCommand(shareEncodeCmd)
	shareCmd.AddCommand(shareDecodeCmd)

	shareEncodeCmd.Flags().String("base", "http://localhost:5173/", "Base URL of the funnel player")
	shareEncodeCmd.Flags().String("funnel-id", "", "Published funnel id that receives the leads")
	shareDecodeCmd.Flags().StringP("output", "o", "", "Write the YAML to this file")
}
