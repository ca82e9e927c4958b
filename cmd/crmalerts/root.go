package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/autosend"
	"github.com/nhle/crm-alerts/internal/credential"
	"github.com/nhle/crm-alerts/internal/dispatch"
	"github.com/nhle/crm-alerts/internal/ledger"
	"github.com/nhle/crm-alerts/internal/logger"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/notify"
	"github.com/nhle/crm-alerts/internal/snooze"
	"github.com/nhle/crm-alerts/internal/store"
)

// options holds the persistent flags.
type options struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "crmalerts",
		Short: "CRM alert derivation and owner notifications",
		Long: `crmalerts turns CRM records (accounts, contacts, tasks) into time-sensitive
alerts: birthdays, follow-ups, task due dates, joint business plans and custom
events. Alerts can be completed, dismissed or snoozed, and sent to the
relationship owner over SMTP, an HTTP flow, an IMAP drop-box or a file outbox.

Run without arguments to open the terminal UI.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newConfigCmd(opts),
		newImportCmd(opts),
		newAlertsCmd(opts),
		newCompleteCmd(opts),
		newReopenCmd(opts),
		newDismissCmd(opts),
		newSnoozeCmd(opts),
		newUnsnoozeCmd(opts),
		newSendCmd(opts),
		newAutoSendCmd(opts),
		newSettingsCmd(opts),
		newLedgerCmd(opts),
		newExportICSCmd(opts),
		newCredentialsCmd(opts),
		newTUICmd(opts),
	)
	return root
}

func defaultConfigPath() string {
	if p := os.Getenv("CRMALERTS_CONFIG"); p != "" {
		return p
	}
	return model.DefaultConfigPath()
}

// env is the wired service graph for one command invocation.
type env struct {
	cfg       *model.AppConfig
	log       *slog.Logger
	store     *store.SQLiteStore
	alerts    *alerts.Service
	ledger    *ledger.Ledger
	sender    *dispatch.Sender
	scheduler *autosend.Scheduler
}

// openEnv loads the config, opens the store and wires the services.
// Logs go to logOut.
func openEnv(opts *options, logOut io.Writer) (*env, error) {
	cfg, err := model.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	log := logger.Init(logOut, level, cfg.Log.Format)

	if dir := filepath.Dir(cfg.Storage.Path); cfg.Storage.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}
	st, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	notifier, err := notify.New(log, cfg.Notification, credential.Lookup)
	if err != nil {
		st.Close()
		return nil, err
	}

	e := &env{cfg: cfg, log: log, store: st}
	e.alerts = alerts.NewService(log, st, snooze.NewRegistry(log, st), time.Now)
	e.ledger = ledger.New(log, st)
	e.sender = dispatch.NewSender(log, notifier, e.ledger, e.alerts)
	e.scheduler = autosend.New(log, e.alerts, e.ledger, e.sender, autosend.Config{
		Throttle:           time.Duration(cfg.AutoSend.ThrottleMs) * time.Millisecond,
		ClearSentAfterDays: cfg.AutoSend.ClearSentAfterDays,
	})
	return e, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// withEnv opens an env that logs to the command's stderr, runs fn with the
// env logger in the command context and closes the env.
func withEnv(cmd *cobra.Command, opts *options, fn func(e *env) error) error {
	e, err := openEnv(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.Close()
	cmd.SetContext(logger.WithContext(cmd.Context(), e.log))
	return fn(e)
}
