package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nhle/crm-alerts/internal/model"
)

var transports = []string{
	model.TransportNone,
	model.TransportSMTP,
	model.TransportWebhook,
	model.TransportIMAP,
	model.TransportOutbox,
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the config file",
	}

	var (
		force     bool
		transport string
		from      string
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(opts.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", opts.configPath)
			}
			if !slices.Contains(transports, transport) {
				return fmt.Errorf("unknown transport %q", transport)
			}

			cfg := model.DefaultAppConfig()
			cfg.Notification.Transport = transport
			if from != "" {
				cfg.Notification.From = from
			}
			if err := model.SaveConfig(opts.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", opts.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&transport, "transport", model.TransportNone, "notification transport (none, smtp, webhook, imap, outbox)")
	initCmd.Flags().StringVar(&from, "from", "", "sender address for reminder e-mails")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := model.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", opts.configPath)
			return writeJSON(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
