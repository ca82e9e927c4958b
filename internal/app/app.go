package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/autosend"
	"github.com/nhle/crm-alerts/internal/dispatch"
	"github.com/nhle/crm-alerts/internal/keys"
	"github.com/nhle/crm-alerts/internal/ledger"
	"github.com/nhle/crm-alerts/internal/logger"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/ui"
	"github.com/nhle/crm-alerts/internal/ui/alertlist"
	"github.com/nhle/crm-alerts/internal/ui/command"
	"github.com/nhle/crm-alerts/internal/ui/detail"
	helpview "github.com/nhle/crm-alerts/internal/ui/help"
	"github.com/nhle/crm-alerts/internal/ui/settingsform"
	"github.com/nhle/crm-alerts/internal/ui/snoozeform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewSnooze
	ViewSettings
)

// Deps are the services the UI drives. Sender and Scheduler may be nil
// when no notification transport is configured.
type Deps struct {
	Alerts    *alerts.Service
	Ledger    *ledger.Ledger
	Sender    *dispatch.Sender
	Scheduler *autosend.Scheduler
	Logger    *slog.Logger
}

// Model is the root Bubble Tea model that manages view routing and the
// alert services.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	alerts    *alerts.Service
	ledger    *ledger.Ledger
	sender    *dispatch.Sender
	scheduler *autosend.Scheduler
	logger    *slog.Logger

	// ctx carries logger for commands run off the update loop.
	ctx context.Context

	alertList    alertlist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	snoozeForm   snoozeform.Model
	settingsForm settingsform.Model

	ready       bool
	autoSend    bool
	passRunning bool
	notice      string
}

// New creates the root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	log := d.Logger
	if log == nil {
		log = logger.L
	}
	log = log.With(slog.String("service", "tui"))

	return Model{
		currentView:  ViewList,
		keys:         k,
		alerts:       d.Alerts,
		ledger:       d.Ledger,
		sender:       d.Sender,
		scheduler:    d.Scheduler,
		logger:       log,
		ctx:          logger.WithContext(context.Background(), log),
		alertList:    alertlist.New(d.Alerts, k, 80, 24),
		detail:       detail.New(k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		snoozeForm:   snoozeform.New(80, 24),
		settingsForm: settingsform.New(80, 24),
	}
}

// Init loads the alert list and the auto-send toggle.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadAutoSend(),
		m.alertList.Init(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.Width, m.layout.ContentHeight()
		m.alertList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.snoozeForm.SetSize(w, h)
		m.settingsForm.SetSize(w, h)
		// Forward so huh forms can lay out.
		return m.updateActiveView(msg)

	case alertlist.AlertsLoadedMsg:
		var cmd tea.Cmd
		m.alertList, cmd = m.alertList.Update(msg)
		if msg.Err != nil {
			m.logger.Error("refreshing alerts", slog.Any("error", msg.Err))
			return m, cmd
		}
		run := m.maybeRunAutoSend()
		return m, tea.Batch(cmd, run)

	case autosend.PassResultMsg:
		m.passRunning = false
		m.notice = passNotice(msg)
		return m, nil

	case autoSendStateMsg:
		if msg.err != nil {
			m.notice = "Auto-send: " + msg.err.Error()
			return m, nil
		}
		changed := msg.enabled && !m.autoSend
		m.autoSend = msg.enabled
		if changed {
			run := m.maybeRunAutoSend()
			return m, run
		}
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			m.logger.Warn("alert action failed", slog.Any("error", msg.err))
		} else {
			m.notice = msg.notice
		}
		cmds := []tea.Cmd{m.alertList.LoadAlerts(), m.loadAutoSend()}
		if m.currentView == ViewDetail {
			if a, ok := m.detail.Current(); ok {
				cmds = append(cmds, m.reloadDetail(a.ID))
			}
		}
		return m, tea.Batch(cmds...)

	case alertlist.SelectedAlertMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetLoading(true)
		return m, m.loadDetail(msg.Alert)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case snoozeform.SnoozeSubmittedMsg:
		m.currentView = ViewList
		return m, m.snooze(msg.AlertID, msg.Days)

	case snoozeform.CancelMsg, settingsform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case settingsReadyMsg:
		cmd := m.settingsForm.Start(msg.settings, msg.autoSend)
		return m, cmd

	case settingsform.SettingsSubmittedMsg:
		m.currentView = ViewList
		return m, m.saveSettings(msg.Settings, msg.AutoSend)

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case tea.KeyMsg:
		if m.notice != "" {
			m.notice = ""
		}
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey handles keys that act on the app rather than the
// focused view. Forms and the command palette keep their keystrokes.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}

	switch m.currentView {
	case ViewSnooze, ViewSettings:
		return nil, false
	case ViewList:
		if m.alertList.Searching() {
			return nil, false
		}
	case ViewCommand:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.Command) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Quit) && m.currentView == ViewList:
		return tea.Quit, true

	case key.Matches(msg, m.keys.Refresh):
		return m.alertList.LoadAlerts(), true

	case key.Matches(msg, m.keys.AutoSend):
		return m.setAutoSend(!m.autoSend), true

	case key.Matches(msg, m.keys.Settings):
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m.loadSettings(), true

	case key.Matches(msg, m.keys.ToggleAll) && m.currentView == ViewList:
		return m.alertList.ToggleShowAll(), true
	}

	a, ok := m.target()
	if !ok {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Complete):
		return m.toggleComplete(a), true
	case key.Matches(msg, m.keys.Dismiss):
		return m.dismiss(a), true
	case key.Matches(msg, m.keys.Snooze):
		m.previousView = m.currentView
		m.currentView = ViewSnooze
		return m.snoozeForm.Start(a), true
	case key.Matches(msg, m.keys.Unsnooze):
		return m.unsnooze(a.ID), true
	case key.Matches(msg, m.keys.Send):
		m.notice = "Sending " + a.Title + "..."
		return m.send(a), true
	}
	return nil, false
}

// target returns the alert an action key applies to: the open alert in
// the detail view, else the list selection.
func (m Model) target() (model.Alert, bool) {
	switch m.currentView {
	case ViewDetail:
		return m.detail.Current()
	case ViewList:
		return m.alertList.SelectedAlert()
	}
	return model.Alert{}, false
}

// maybeRunAutoSend starts a scheduler pass when auto-send is on and no
// pass is in flight.
func (m *Model) maybeRunAutoSend() tea.Cmd {
	if !m.autoSend || m.scheduler == nil || m.passRunning {
		return nil
	}
	m.passRunning = true
	return m.scheduler.Trigger(m.ctx)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.alertList, cmd = m.alertList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSnooze:
		m.snoozeForm, cmd = m.snoozeForm.Update(msg)
	case ViewSettings:
		m.settingsForm, cmd = m.settingsForm.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "CRM Alerts"
	if n := m.alertList.PendingCount(); n > 0 {
		title = fmt.Sprintf("CRM Alerts [%d pending]", n)
	}
	header := m.layout.RenderHeader(title, m.autoSendStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.notice)

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.alertList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSnooze:
		return m.snoozeForm.View()
	case ViewSettings:
		return m.settingsForm.View()
	default:
		return ""
	}
}

// autoSendStatus summarizes the toggle and the last scheduler pass.
func (m Model) autoSendStatus() string {
	if m.sender == nil || !m.sender.Enabled() {
		return "notifications off"
	}
	if !m.autoSend {
		return "auto-send off"
	}
	if m.scheduler == nil {
		return "auto-send on"
	}

	st := m.scheduler.Status()
	switch st.State {
	case autosend.StateRunning:
		return "auto-sending..."
	case autosend.StateError:
		return "⚠ auto-send failed"
	}
	if st.LastRun.IsZero() {
		return "auto-send on"
	}
	return fmt.Sprintf("auto-send on · %d sent %s", st.Last.Sent, st.LastRun.Format("15:04"))
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | x complete | d dismiss | z snooze | s send | j/k scroll"
	case ViewSnooze, ViewSettings:
		return "enter submit | esc cancel"
	default:
		if f := m.alertList.FilterSummary(); f != "" {
			return f + " | 0 clear"
		}
		return "q quit | ? help | x done | z snooze | s send | A auto-send | c settings"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh", "r":
		return m.alertList.LoadAlerts()
	case "quit", "q":
		return tea.Quit
	case "autosend on":
		return m.setAutoSend(true)
	case "autosend off":
		return m.setAutoSend(false)
	case "autosend run":
		if m.scheduler == nil {
			m.notice = "Notifications are not configured"
			return nil
		}
		m.passRunning = true
		return m.scheduler.Trigger(m.ctx)
	case "settings", "config":
		m.previousView = ViewList
		m.currentView = ViewSettings
		return m.loadSettings()
	case "all":
		return m.alertList.SetShowAll(true)
	case "pending":
		return m.alertList.SetShowAll(false)
	case "clear":
		return m.alertList.ClearFilters()
	default:
		m.notice = fmt.Sprintf("Unknown command %q", cmd)
		return nil
	}
}

func passNotice(msg autosend.PassResultMsg) string {
	switch {
	case msg.Err != nil:
		return "Auto-send failed: " + msg.Err.Error()
	case msg.Result.Skipped != "":
		return "Auto-send skipped: " + msg.Result.Skipped
	case msg.Result.Failed > 0:
		return fmt.Sprintf("Auto-send: %d sent, %d failed", msg.Result.Sent, msg.Result.Failed)
	case msg.Result.Sent > 0:
		return fmt.Sprintf("Auto-send: %d sent", msg.Result.Sent)
	default:
		return ""
	}
}
