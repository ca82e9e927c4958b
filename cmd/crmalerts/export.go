package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/crm-alerts/internal/calendar"
)

func newExportICSCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Export pending alerts as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				list, err := e.alerts.Refresh(cmd.Context())
				if err != nil {
					return err
				}

				toFile := output != "" && output != "-"
				var w io.Writer = cmd.OutOrStdout()
				if toFile {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("creating %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}

				n, err := calendar.Export(w, list, e.alerts.Now())
				if err != nil {
					return err
				}
				if toFile {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", n, output)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
