package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/crm-alerts/internal/autosend"
)

func newAutoSendCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autosend",
		Short: "Control automatic sending",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run one auto-send pass now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEnv(cmd, opts, func(e *env) error {
					res, err := e.scheduler.Run(cmd.Context())
					if err != nil {
						return err
					}
					printPass(cmd.OutOrStdout(), res)
					return nil
				})
			},
		},
		autoSendToggleCmd(opts, "enable", true),
		autoSendToggleCmd(opts, "disable", false),
		&cobra.Command{
			Use:   "status",
			Short: "Show whether auto-send is enabled",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withEnv(cmd, opts, func(e *env) error {
					enabled, err := e.alerts.AutoSendEnabled(cmd.Context())
					if err != nil {
						return err
					}
					state := "disabled"
					if enabled {
						state = "enabled"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Auto-send %s (transport: %s)\n", state, e.cfg.Notification.Transport)
					return nil
				})
			},
		},
	)
	return cmd
}

func autoSendToggleCmd(opts *options, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: use + " auto-send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				if err := e.alerts.SetAutoSend(cmd.Context(), enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Auto-send %sd\n", use)
				return nil
			})
		},
	}
}

func printPass(w io.Writer, res autosend.PassResult) {
	if res.Skipped != "" {
		fmt.Fprintf(w, "Skipped: %s\n", res.Skipped)
		return
	}
	fmt.Fprintf(w, "Eligible: %d  Sent: %d  Failed: %d  Cleared: %d\n",
		res.Eligible, res.Sent, res.Failed, res.Cleared)
}
