package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var submissionsCmd = &cobra.Command{
	Use:     "submissions",
	Aliases: []string{"subs"},
	Short:   "Inspect captured leads",
}

var submissionsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List submissions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		funnelID, _ := cmd.Flags().GetString("funnel")

		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		subs, err := stack.Submissions.List(cmd.Context(), funnelID)
		if err != nil {
			return fmt.Errorf("error listing submissions: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(subs) == 0 {
			fmt.Fprintln(out, "No submissions found.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tWHEN\tNAME\tEMAIL\tFUNNEL\tANSWERS")
		for _, s := range subs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
				s.ID, s.Timestamp.Local().Format(time.DateTime), s.Contact.Name, s.Contact.Email, s.FunnelID, len(s.Answers))
		}
		return tw.Flush()
	},
}

var submissionsShowCmd = &cobra.Command{
	Use:   "show <submission-id>",
	Short: "Print a submission as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		sub, err := stack.Submissions.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading submission '%s': %w", args[0], err)
		}
		data, err := json.MarshalIndent(sub, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submissionsCmd)
	submissionsCmd.AddCommand(submissionsLsCmd)
	submissionsCmd.AddCommand(submissionsShowCmd)

	submissionsLsCmd.Flags().String("funnel", "", "Only submissions of this published funnel")
}
