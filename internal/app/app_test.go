package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/autosend"
	"github.com/nhle/crm-alerts/internal/dispatch"
	"github.com/nhle/crm-alerts/internal/ledger"
	"github.com/nhle/crm-alerts/internal/logger"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/snooze"
	"github.com/nhle/crm-alerts/internal/store"
	"github.com/nhle/crm-alerts/internal/ui/command"
	"github.com/nhle/crm-alerts/tests/testutil"
)

var now = time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *alerts.Service
	ledger   *ledger.Ledger
	notifier *testutil.Notifier
	deps     Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := testutil.NewTestStore(t)
	testutil.Seed(t, s, store.KeyContacts, []model.Contact{
		{ID: "c1", FirstName: "Ada", Birthday: "1990-06-12", BirthdayAlert: true, NotificationEmail: "ada@example.com"},
		{ID: "c2", FirstName: "Alan", NextContactDate: "2024-06-09", NextContactAlert: true, NotificationEmail: "alan@example.com"},
	})

	log := logger.Discard()
	f := &fixture{notifier: &testutil.Notifier{}}
	f.svc = alerts.NewService(log, s, snooze.NewRegistry(log, s), func() time.Time { return now })
	f.ledger = ledger.New(log, s)
	sender := dispatch.NewSender(log, f.notifier, f.ledger, f.svc)
	f.deps = Deps{
		Alerts:    f.svc,
		Ledger:    f.ledger,
		Sender:    sender,
		Scheduler: autosend.New(log, f.svc, f.ledger, sender, autosend.Config{}),
		Logger:    log,
	}
	return f
}

// drive feeds msg to m and runs every resulting command to completion,
// feeding their messages back in.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()

	queue := []tea.Msg{msg}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "update loop did not settle")

		next := queue[0]
		queue = queue[1:]

		if batch, ok := next.(tea.BatchMsg); ok {
			for _, c := range batch {
				if c != nil {
					queue = append(queue, c())
				}
			}
			continue
		}
		if _, ok := next.(tea.QuitMsg); ok || next == nil {
			continue
		}

		updated, cmd := m.Update(next)
		m = updated.(Model)
		if cmd != nil {
			queue = append(queue, cmd())
		}
	}
	return m
}

func start(t *testing.T, f *fixture) Model {
	t.Helper()
	m := New(f.deps)
	m = drive(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return drive(t, m, tea.BatchMsg{m.Init()})
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApp_LoadsPendingAlerts(t *testing.T) {
	m := start(t, newFixture(t))

	assert.Equal(t, 2, m.alertList.PendingCount())
	sel, ok := m.alertList.SelectedAlert()
	require.True(t, ok)
	assert.Equal(t, "follow-up-c2", sel.ID)
	assert.Contains(t, m.View(), "CRM Alerts [2 pending]")
}

func TestApp_CompleteSelected(t *testing.T) {
	f := newFixture(t)
	m := start(t, f)

	m = drive(t, m, keyPress("x"))

	a, err := f.svc.Find(context.Background(), "follow-up-c2")
	require.NoError(t, err)
	assert.True(t, a.IsCompleted())
	assert.Equal(t, 1, m.alertList.PendingCount())
}

func TestApp_ManualSendRecordsLedger(t *testing.T) {
	f := newFixture(t)
	m := start(t, f)

	m = drive(t, m, keyPress("s"))

	require.Len(t, f.notifier.Sent(), 1)
	assert.Equal(t, "alan@example.com", f.notifier.Sent()[0].OwnerEmail)
	sent, err := f.ledger.WasSent(context.Background(), "follow-up-c2")
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Contains(t, m.notice, "Sent")
}

func TestApp_EnablingAutoSendRunsPass(t *testing.T) {
	f := newFixture(t)
	m := start(t, f)
	require.Empty(t, f.notifier.Sent())

	m = drive(t, m, keyPress("A"))

	assert.True(t, m.autoSend)
	assert.Len(t, f.notifier.Sent(), 2)
	assert.Equal(t, "Auto-send: 2 sent", m.notice)

	enabled, err := f.svc.AutoSendEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestApp_HelpToggle(t *testing.T) {
	m := start(t, newFixture(t))

	m = drive(t, m, keyPress("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = drive(t, m, keyPress("?"))
	assert.Equal(t, ViewList, m.currentView)
}

func TestApp_ExecuteCommand(t *testing.T) {
	m := start(t, newFixture(t))

	assert.Nil(t, m.executeCommand("frobnicate"))
	assert.Contains(t, m.notice, "Unknown command")

	m = drive(t, m, command.CommandMsg("all"))
	m = drive(t, m, keyPress("x"))
	m = drive(t, m, command.CommandMsg("pending"))
	assert.Equal(t, 1, m.alertList.PendingCount())
	assert.Len(t, m.alertList.Alerts(), 2)
}
