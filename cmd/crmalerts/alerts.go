package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/crm-alerts/internal/dateutil"
	"github.com/nhle/crm-alerts/internal/model"
)

func newAlertsCmd(opts *options) *cobra.Command {
	var (
		all    bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List derived alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				list, err := e.alerts.Refresh(cmd.Context())
				if err != nil {
					return err
				}
				if !all {
					list = pendingOnly(list)
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), list)
				}
				renderAlerts(cmd.OutOrStdout(), list, e.alerts.Now())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include completed and dismissed alerts")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print alerts as JSON")
	return cmd
}

func pendingOnly(list []model.Alert) []model.Alert {
	out := make([]model.Alert, 0, len(list))
	for _, a := range list {
		if a.IsPending() {
			out = append(out, a)
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderAlerts(w io.Writer, list []model.Alert, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No alerts.")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		due := a.DueDate + " (" + dateutil.Phrase(a.DaysUntil) + ")"
		rows = append(rows, []string{a.ID, string(a.Type), string(a.Priority), string(a.Status), a.Title, due})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TYPE", "PRIORITY", "STATUS", "TITLE", "DUE").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d alerts as of %s\n", len(list), now.Format("2006-01-02"))
}

// newStateCmd builds a command that applies one state change to an alert.
func newStateCmd(opts *options, use, short, done string, apply func(e *env, cmd *cobra.Command, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <alert-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				if _, err := e.alerts.Find(cmd.Context(), args[0]); err != nil {
					return err
				}
				if err := apply(e, cmd, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, args[0])
				return nil
			})
		},
	}
}

func newCompleteCmd(opts *options) *cobra.Command {
	return newStateCmd(opts, "complete", "Mark an alert completed", "Completed",
		func(e *env, cmd *cobra.Command, id string) error {
			return e.alerts.Complete(cmd.Context(), id)
		})
}

func newReopenCmd(opts *options) *cobra.Command {
	return newStateCmd(opts, "reopen", "Return an alert to pending", "Reopened",
		func(e *env, cmd *cobra.Command, id string) error {
			return e.alerts.Reopen(cmd.Context(), id)
		})
}

func newDismissCmd(opts *options) *cobra.Command {
	return newStateCmd(opts, "dismiss", "Dismiss an alert", "Dismissed",
		func(e *env, cmd *cobra.Command, id string) error {
			return e.alerts.Dismiss(cmd.Context(), id)
		})
}

func newUnsnoozeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "unsnooze <alert-id>",
		Short: "Remove an alert's snooze",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.alerts.Unsnooze(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unsnoozed %s\n", args[0])
				return nil
			})
		},
	}
}

func newSnoozeCmd(opts *options) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "snooze <alert-id>",
		Short: "Hide an alert for a number of days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				s, err := e.alerts.Snooze(cmd.Context(), args[0], days)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Snoozed %s until %s\n", args[0], s.SnoozeUntil.Format("2006-01-02"))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 1, "number of days to snooze")
	return cmd
}

func newSendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send <alert-id>",
		Short: "Send an alert to its relationship owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				a, err := e.alerts.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				ok, err := e.sender.Send(cmd.Context(), a, false)
				if err != nil {
					if ok {
						fmt.Fprintf(cmd.OutOrStdout(), "Sent %s (not recorded: %v)\n", a.ID, err)
						return nil
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %s\n", a.ID)
				return nil
			})
		},
	}
}
