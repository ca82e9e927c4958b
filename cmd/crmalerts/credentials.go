package main

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/crm-alerts/internal/credential"
)

func newCredentialsCmd(_ *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage transport secrets in the OS keyring",
	}

	var fromStdin bool
	set := &cobra.Command{
		Use:   "set <key>",
		Short: "Store a secret",
		Long:  "Keys: " + strings.Join(credential.Keys(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := checkKey(key); err != nil {
				return err
			}

			var value string
			if fromStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading secret from stdin: %w", err)
				}
				value = strings.TrimSpace(line)
			} else {
				err := huh.NewInput().
					Title(key).
					EchoMode(huh.EchoModePassword).
					Value(&value).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("value is required")
						}
						return nil
					}).
					Run()
				if err != nil {
					return err
				}
			}
			if value == "" {
				return fmt.Errorf("empty secret for %s", key)
			}

			if err := credential.Set(key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", key)
			return nil
		},
	}
	set.Flags().BoolVar(&fromStdin, "stdin", false, "read the secret from stdin instead of prompting")

	del := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkKey(args[0]); err != nil {
				return err
			}
			if err := credential.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show which secrets are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, key := range credential.Keys() {
				env, _ := credential.EnvVar(key)
				source := "not set"
				switch {
				case strings.TrimSpace(os.Getenv(env)) != "":
					source = "env " + env
				default:
					if _, err := credential.Get(key); err == nil {
						source = "keyring"
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", key, source)
			}
			return nil
		},
	}

	cmd.AddCommand(set, del, list)
	return cmd
}

func checkKey(key string) error {
	if !slices.Contains(credential.Keys(), key) {
		return fmt.Errorf("unknown credential %q (want one of %s)", key, strings.Join(credential.Keys(), ", "))
	}
	return nil
}
