package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/crm-alerts/internal/app"
)

func newTUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

// runTUI starts the Bubble Tea program. Logs go to a file next to the
// config so they do not corrupt the screen.
func runTUI(cmd *cobra.Command, opts *options) error {
	logPath := filepath.Join(filepath.Dir(opts.configPath), "crmalerts.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	e, err := openEnv(opts, logFile)
	if err != nil {
		return err
	}
	defer e.Close()

	m := app.New(app.Deps{
		Alerts:    e.alerts,
		Ledger:    e.ledger,
		Sender:    e.sender,
		Scheduler: e.scheduler,
		Logger:    e.log,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running tui: %w", err)
	}
	return nil
}
