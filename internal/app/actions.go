package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/dispatch"
	"github.com/nhle/crm-alerts/internal/ledger"
	"github.com/nhle/crm-alerts/internal/logger"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/ui/detail"
)

// actionResultMsg reports a finished alert action. The list is reloaded
// after every action.
type actionResultMsg struct {
	notice string
	err    error
}

// autoSendStateMsg carries the persisted auto-send toggle.
type autoSendStateMsg struct {
	enabled bool
	err     error
}

// settingsReadyMsg carries current settings for the settings form.
type settingsReadyMsg struct {
	settings model.AlertSettings
	autoSend bool
}

// toggleComplete completes a pending alert and reopens a completed one.
func (m *Model) toggleComplete(a model.Alert) tea.Cmd {
	svc, ctx := m.alerts, m.ctx
	return func() tea.Msg {
		if a.IsCompleted() {
			return actionResultMsg{notice: "Reopened " + a.Title, err: svc.Reopen(ctx, a.ID)}
		}
		return actionResultMsg{notice: "Completed " + a.Title, err: svc.Complete(ctx, a.ID)}
	}
}

func (m *Model) dismiss(a model.Alert) tea.Cmd {
	svc, ctx := m.alerts, m.ctx
	return func() tea.Msg {
		err := svc.Dismiss(ctx, a.ID)
		return actionResultMsg{notice: "Dismissed " + a.Title, err: err}
	}
}

func (m *Model) snooze(id string, days int) tea.Cmd {
	svc, ctx := m.alerts, m.ctx
	return func() tea.Msg {
		rec, err := svc.Snooze(ctx, id, days)
		if err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{notice: fmt.Sprintf("Snoozed until %s", rec.SnoozeUntil.Format("Mon Jan 2"))}
	}
}

func (m *Model) unsnooze(id string) tea.Cmd {
	svc, ctx := m.alerts, m.ctx
	return func() tea.Msg {
		err := svc.Unsnooze(ctx, id)
		return actionResultMsg{notice: "Unsnoozed " + id, err: err}
	}
}

// send dispatches a manually. Manual sends ignore the reminder cadence.
func (m *Model) send(a model.Alert) tea.Cmd {
	sender, ctx := m.sender, m.ctx
	return func() tea.Msg {
		if sender == nil {
			return actionResultMsg{err: dispatch.ErrServiceDisabled}
		}
		sent, err := sender.Send(ctx, a, false)
		if err != nil {
			if sent {
				logger.FromContext(ctx).Warn("sent but not recorded", slog.String("alert_id", a.ID), slog.Any("error", err))
			}
			return actionResultMsg{err: err}
		}
		if !sent {
			return actionResultMsg{notice: "Not sent: " + a.Title}
		}
		return actionResultMsg{notice: "Sent " + a.Title}
	}
}

func (m *Model) loadAutoSend() tea.Cmd {
	svc, ctx := m.alerts, m.ctx
	return func() tea.Msg {
		enabled, err := svc.AutoSendEnabled(ctx)
		return autoSendStateMsg{enabled: enabled, err: err}
	}
}

func (m *Model) setAutoSend(enabled bool) tea.Cmd {
	svc, ctx := m.alerts, m.ctx
	return func() tea.Msg {
		err := svc.SetAutoSend(ctx, enabled)
		return autoSendStateMsg{enabled: enabled, err: err}
	}
}

func (m *Model) loadSettings() tea.Cmd {
	svc, ctx := m.alerts, m.ctx
	autoSend := m.autoSend
	return func() tea.Msg {
		s, _ := svc.Settings(ctx)
		return settingsReadyMsg{settings: s, autoSend: autoSend}
	}
}

func (m *Model) saveSettings(s model.AlertSettings, autoSend bool) tea.Cmd {
	svc, ctx := m.alerts, m.ctx
	return func() tea.Msg {
		if err := svc.SaveSettings(ctx, s); err != nil {
			return actionResultMsg{err: err}
		}
		if err := svc.SetAutoSend(ctx, autoSend); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{notice: "Settings saved"}
	}
}

// loadDetail resolves where a send would go and when it last went out.
func (m *Model) loadDetail(a model.Alert) tea.Cmd {
	svc, l, ctx := m.alerts, m.ledger, m.ctx
	return func() tea.Msg {
		return detail.DetailLoadedMsg{Detail: fetchDetail(ctx, svc, l, a)}
	}
}

// reloadDetail re-derives the alert so the detail view shows fresh state.
func (m *Model) reloadDetail(id string) tea.Cmd {
	svc, l, ctx := m.alerts, m.ledger, m.ctx
	return func() tea.Msg {
		a, err := svc.Find(ctx, id)
		if err != nil {
			return detail.BackMsg{}
		}
		return detail.DetailLoadedMsg{Detail: fetchDetail(ctx, svc, l, a)}
	}
}

func fetchDetail(ctx context.Context, svc *alerts.Service, l *ledger.Ledger, a model.Alert) *detail.Detail {
	d := &detail.Detail{Alert: a}

	src, err := svc.Sources(ctx)
	if err != nil {
		d.RecipientErr = err
	} else if res, err := dispatch.Resolve(a, src); err != nil {
		d.RecipientErr = err
		var resErr *dispatch.ResolutionError
		if errors.As(err, &resErr) {
			for _, at := range resErr.Attempts {
				d.Attempts = append(d.Attempts, at.String())
			}
		}
	} else {
		d.Recipient = res.Email
		d.RecipientSource = res.Source
	}

	if l != nil {
		d.LastSent, _ = l.LastSent(ctx, a.ID)
	}
	return d
}
