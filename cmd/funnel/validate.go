package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/funnel/internal/cli"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file | share-link | funnel:id>...",
	Short: "Check funnels for consistency",
	Long:  `Reports every schema problem of each funnel: missing ids, duplicates, dangling branch targets and unsupported inputs.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		funnels, closeFn, err := funnelSource(cmd, args)
		if err != nil {
			return err
		}
		defer closeFn()

		out := cmd.OutOrStdout()
		failed := 0
		for _, ref := range args {
			src, err := cli.ResolveSource(cmd.Context(), ref, funnels)
			if err != nil {
				fmt.Fprintf(out, "%s: %v\n", ref, err)
				failed++
				continue
			}
			if err := schema.Validate(src.Document); err != nil {
				failed++
				fmt.Fprintf(out, "%s: invalid\n", ref)
				for _, verr := range schema.ValidationErrors(err) {
					fmt.Fprintf(out, "  - %v\n", verr)
				}
				continue
			}
			fmt.Fprintf(out, "%s: valid (%d steps)\n", ref, src.Document.Len())
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d funnels failed validation", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// funnelSource connects the persistence service only when a reference needs it.
func funnelSource(cmd *cobra.Command, refs []string) (ports.FunnelSource, func(), error) {
	for _, ref := range refs {
		if strings.HasPrefix(ref, cli.FunnelRefPrefix) {
			stack, err := openStack(cmd)
			if err != nil {
				return nil, nil, err
			}
			return stack.Funnels, func() { _ = stack.Close() }, nil
		}
	}
	return nil, func() {}, nil
}
