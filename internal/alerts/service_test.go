package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/snooze"
	"github.com/nhle/crm-alerts/internal/store"
	"github.com/nhle/crm-alerts/tests/testutil"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newService(t *testing.T) (*alerts.Service, store.Store, *clock) {
	t.Helper()

	s := testutil.NewTestStore(t)
	testutil.Seed(t, s, store.KeyContacts, []model.Contact{
		{ID: "c1", FirstName: "Ada", LastName: "Lovelace", Birthday: "1990-06-12", BirthdayAlert: true},
		{ID: "c2", FirstName: "Alan", NextContactDate: "2024-06-09", NextContactAlert: true},
	})
	testutil.Seed(t, s, store.KeyTasks, []model.Task{
		{ID: "t1", Title: "Quote", DueDate: "2024-06-10", Status: model.TaskStatusPending, Priority: model.PriorityMedium},
	})

	c := &clock{t: today}
	log := discardLogger()
	svc := alerts.NewService(log, s, snooze.NewRegistry(log, s), c.Now)
	return svc, s, c
}

func ids(list []model.Alert) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func find(list []model.Alert, id string) (model.Alert, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return model.Alert{}, false
}

func TestService_RefreshUsesDefaultSettings(t *testing.T) {
	svc, _, _ := newService(t)

	got, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"birthday-c1", "follow-up-c2", "task-t1"}, ids(got))
}

func TestService_CompletionSurvivesRecompute(t *testing.T) {
	ctx := context.Background()
	svc, s, c := newService(t)

	require.NoError(t, svc.Complete(ctx, "birthday-c1"))

	// Fresh source data with the same underlying fact.
	testutil.Seed(t, s, store.KeyContacts, []model.Contact{
		{ID: "c1", FirstName: "Ada", LastName: "King", Birthday: "06/12", BirthdayAlert: true},
	})
	c.t = today.Add(3 * time.Hour)

	got, err := svc.Refresh(ctx)
	require.NoError(t, err)

	a, ok := find(got, "birthday-c1")
	require.True(t, ok)
	assert.True(t, a.IsCompleted())
	assert.Equal(t, model.AlertStatusCompleted, a.Status)
	require.NotNil(t, a.CompletedAt)
	assert.True(t, a.CompletedAt.Equal(today))

	require.NoError(t, svc.Reopen(ctx, "birthday-c1"))
	got, err = svc.Refresh(ctx)
	require.NoError(t, err)
	a, _ = find(got, "birthday-c1")
	assert.Equal(t, model.AlertStatusPending, a.Status)
	assert.Nil(t, a.CompletedAt)
}

func TestService_DismissIsPersisted(t *testing.T) {
	ctx := context.Background()
	svc, s, _ := newService(t)

	require.NoError(t, svc.Dismiss(ctx, "task-t1"))

	states, err := store.Load(ctx, s, store.KeyAlertStates, []model.AlertState{})
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, model.AlertStatusDismissed, states[0].Status)

	got, err := svc.Refresh(ctx)
	require.NoError(t, err)
	a, ok := find(got, "task-t1")
	require.True(t, ok)
	assert.Equal(t, model.AlertStatusDismissed, a.Status)
	assert.Empty(t, alerts.Pending([]model.Alert{a}))
}

func TestService_SnoozeHidesUntilExpiry(t *testing.T) {
	ctx := context.Background()
	svc, _, c := newService(t)

	until, err := svc.Snooze(ctx, "follow-up-c2", 1)
	require.NoError(t, err)
	assert.True(t, until.SnoozeUntil.After(today))

	got, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(got), "follow-up-c2")

	c.t = today.Add(25 * time.Hour)
	got, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids(got), "follow-up-c2")
}

func TestService_CompletedSnoozedAlertStaysVisible(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.Snooze(ctx, "task-t1", 3)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, "task-t1"))

	got, err := svc.Refresh(ctx)
	require.NoError(t, err)
	a, ok := find(got, "task-t1")
	require.True(t, ok)
	assert.True(t, a.IsCompleted())
}

func TestService_UnknownAlert(t *testing.T) {
	svc, _, _ := newService(t)

	err := svc.Complete(context.Background(), "birthday-nobody")
	assert.ErrorIs(t, err, alerts.ErrAlertNotFound)
}

func TestService_Settings(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	settings, err := svc.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAlertSettings(), settings)

	settings.BirthdayAlertOptions = []model.LeadOption{}
	require.NoError(t, svc.SaveSettings(ctx, settings))

	got, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids(got), "birthday-c1")

	settings.ReminderFrequency = "hourly"
	assert.Error(t, svc.SaveSettings(ctx, settings))

	settings.ReminderFrequency = model.FrequencyDaily
	settings.TaskAlertOptions = []model.LeadOption{"month_before"}
	assert.Error(t, svc.SaveSettings(ctx, settings))
}

func TestService_AutoSendToggle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	enabled, err := svc.AutoSendEnabled(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, svc.SetAutoSend(ctx, true))
	enabled, err = svc.AutoSendEnabled(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
}
