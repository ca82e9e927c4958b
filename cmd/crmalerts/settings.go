package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/crm-alerts/internal/model"
)

func newSettingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change alert settings",
	}
	cmd.AddCommand(newSettingsShowCmd(opts), newSettingsSetCmd(opts))
	return cmd
}

func newSettingsShowCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current alert settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				s, err := e.alerts.Settings(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), s)
				}
				printSettings(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print settings as JSON")
	return cmd
}

// settingsFlags maps flag names to the option list they replace.
func settingsFlags(s *model.AlertSettings) map[string]*[]model.LeadOption {
	return map[string]*[]model.LeadOption{
		"birthday":     &s.BirthdayAlertOptions,
		"next-contact": &s.NextContactAlertOptions,
		"task":         &s.TaskAlertOptions,
		"jbp":          &s.JBPAlertOptions,
		"event":        &s.EventAlertOptions,
	}
}

func newSettingsSetCmd(opts *options) *cobra.Command {
	var (
		lists     = map[string]*[]string{}
		frequency string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change lead options or the reminder frequency",
		Long: `Each category flag replaces that category's lead options. Pass an
empty value to disable the category, e.g. --jbp "".

Lead options: same_day, day_before, week_before.
Frequencies: once, daily, every-3-days, weekly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(e *env) error {
				s, err := e.alerts.Settings(cmd.Context())
				if err != nil {
					return err
				}
				for name, target := range settingsFlags(&s) {
					if !cmd.Flags().Changed(name) {
						continue
					}
					*target = toLeadOptions(*lists[name])
				}
				if cmd.Flags().Changed("frequency") {
					s.ReminderFrequency = model.ReminderFrequency(frequency)
				}
				if err := e.alerts.SaveSettings(cmd.Context(), s); err != nil {
					return err
				}
				printSettings(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
	for name := range settingsFlags(&model.AlertSettings{}) {
		lists[name] = cmd.Flags().StringSlice(name, nil, name+" lead options")
	}
	cmd.Flags().StringVar(&frequency, "frequency", "", "reminder frequency")
	return cmd
}

func toLeadOptions(raw []string) []model.LeadOption {
	out := make([]model.LeadOption, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, model.LeadOption(r))
		}
	}
	return out
}

func printSettings(w io.Writer, s model.AlertSettings) {
	row := func(label string, opts []model.LeadOption) {
		names := make([]string, len(opts))
		for i, o := range opts {
			names[i] = string(o)
		}
		value := strings.Join(names, ", ")
		if value == "" {
			value = "(disabled)"
		}
		fmt.Fprintf(w, "%-14s %s\n", label+":", value)
	}
	row("Birthday", s.BirthdayAlertOptions)
	row("Next contact", s.NextContactAlertOptions)
	row("Task", s.TaskAlertOptions)
	row("JBP", s.JBPAlertOptions)
	row("Event", s.EventAlertOptions)
	fmt.Fprintf(w, "%-14s %s\n", "Frequency:", s.ReminderFrequency)
}
