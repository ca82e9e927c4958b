package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/crm-alerts/internal/importer"
)

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load accounts, contacts, tasks and owners from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			b, err := importer.Decode(f)
			if err != nil {
				return err
			}
			return withEnv(cmd, opts, func(e *env) error {
				sum, err := b.Apply(cmd.Context(), e.store)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", sum)
				return nil
			})
		},
	}
}
