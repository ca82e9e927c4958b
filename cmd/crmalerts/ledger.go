package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newLedgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the sent-alert ledger",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List sent alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				recs, err := e.ledger.Records(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), recs)
				}
				if len(recs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sent alerts.")
					return nil
				}
				t := table.New().
					Border(lipgloss.NormalBorder()).
					Headers("ALERT", "TYPE", "DUE", "SENT AT", "AUTO")
				for _, r := range recs {
					auto := ""
					if r.AutoSent {
						auto = "yes"
					}
					t.Row(r.AlertID, string(r.AlertType), r.DueDate, r.SentAt.Local().Format("2006-01-02 15:04"), auto)
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.Render())
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")

	var days int
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop records older than --days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				n, err := e.ledger.ClearOld(cmd.Context(), days, e.alerts.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d records\n", n)
				return nil
			})
		},
	}
	clearCmd.Flags().IntVar(&days, "days", 90, "maximum record age in days")

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}
