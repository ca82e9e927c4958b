package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/dispatch"
	"github.com/nhle/crm-alerts/internal/ledger"
	"github.com/nhle/crm-alerts/internal/logger"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/snooze"
	"github.com/nhle/crm-alerts/internal/store"
	"github.com/nhle/crm-alerts/tests/testutil"
)

type fixture struct {
	svc      *alerts.Service
	ledger   *ledger.Ledger
	notifier *testutil.Notifier
	sender   *dispatch.Sender
	store    store.Store
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := testutil.NewTestStore(t)
	testutil.Seed(t, s, store.KeyAccounts, []model.Account{{ID: "a1", AccountName: "ACME", AccountOwner: "Grace Hopper"}})
	testutil.Seed(t, s, store.KeyContacts, []model.Contact{{
		ID: "c1", FirstName: "Ada", LastName: "Lovelace", AccountID: "a1",
		Birthday: "1990-06-12", BirthdayAlert: true,
		NotificationEmail: "ada.owner@example.com",
	}})

	f := &fixture{
		store:    s,
		notifier: &testutil.Notifier{},
		now:      time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
	}
	log := logger.Discard()
	f.svc = alerts.NewService(log, s, snooze.NewRegistry(log, s), func() time.Time { return f.now })
	f.ledger = ledger.New(log, s)
	f.sender = dispatch.NewSender(log, f.notifier, f.ledger, f.svc)
	return f
}

func (f *fixture) alert(t *testing.T, id string) model.Alert {
	t.Helper()
	a, err := f.svc.Find(context.Background(), id)
	require.NoError(t, err)
	return a
}

func (f *fixture) records(t *testing.T) []model.SentAlertRecord {
	t.Helper()
	recs, err := f.ledger.Records(context.Background())
	require.NoError(t, err)
	return recs
}

func TestSender_ManualSendRecordsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ok, err := f.sender.Send(ctx, f.alert(t, "birthday-c1"), false)

	require.NoError(t, err)
	assert.True(t, ok)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada.owner@example.com", sent[0].OwnerEmail)
	assert.Equal(t, "Ada Lovelace", sent[0].ContactName)
	assert.Equal(t, "ACME", sent[0].AccountName)
	assert.Equal(t, "Grace Hopper", sent[0].OwnerName)
	assert.Equal(t, "false", sent[0].AdditionalData["autoSent"])
	assert.Equal(t, dispatch.SourceNotificationEmail, sent[0].AdditionalData["resolvedFrom"])

	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "birthday-c1", recs[0].AlertID)
	assert.Equal(t, "2024-06-12", recs[0].DueDate)
	assert.False(t, recs[0].AutoSent)
	assert.True(t, recs[0].SentAt.Equal(f.now))
}

func TestSender_AutoSendIsIdempotentWithOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.alert(t, "birthday-c1")

	ok, err := f.sender.Send(ctx, a, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.sender.Send(ctx, a, true)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Len(t, f.notifier.Sent(), 1)
	assert.Len(t, f.records(t), 1)

	// Manual resend is always allowed.
	ok, err = f.sender.Send(ctx, a, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, f.notifier.Sent(), 2)
}

func TestSender_AutoSendHonorsDailyCadence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	settings := model.DefaultAlertSettings()
	settings.ReminderFrequency = model.FrequencyDaily
	require.NoError(t, f.svc.SaveSettings(ctx, settings))
	a := f.alert(t, "birthday-c1")

	ok, _ := f.sender.Send(ctx, a, true)
	assert.True(t, ok)

	f.now = f.now.Add(12 * time.Hour)
	ok, _ = f.sender.Send(ctx, a, true)
	assert.False(t, ok)

	f.now = f.now.Add(13 * time.Hour)
	ok, _ = f.sender.Send(ctx, a, true)
	assert.True(t, ok)
	assert.Len(t, f.records(t), 2)
}

func TestSender_ServiceDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.notifier.Disabled = true
	a := f.alert(t, "birthday-c1")

	ok, err := f.sender.Send(ctx, a, false)
	assert.False(t, ok)
	assert.ErrorIs(t, err, dispatch.ErrServiceDisabled)

	ok, err = f.sender.Send(ctx, a, true)
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Empty(t, f.records(t))
}

func TestSender_RejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	a := model.Alert{ID: "note-1", Type: "note"}

	ok, err := f.sender.Send(context.Background(), a, false)

	assert.False(t, ok)
	assert.ErrorIs(t, err, dispatch.ErrNotDispatchable)
}

func TestSender_TransportFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.notifier.Err = errors.New("connection refused")
	a := f.alert(t, "birthday-c1")

	ok, err := f.sender.Send(ctx, a, false)
	assert.False(t, ok)
	var transportErr *dispatch.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Contains(t, err.Error(), "connection refused")

	ok, err = f.sender.Send(ctx, a, true)
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Empty(t, f.records(t))

	f.notifier.Err = nil
	f.notifier.Reject = true
	_, err = f.sender.Send(ctx, a, false)
	assert.True(t, errors.As(err, &transportErr))
}

func TestSender_ResolutionFailureSurfacesOnlyForManual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	testutil.Seed(t, f.store, store.KeyContacts, []model.Contact{{
		ID: "c1", FirstName: "Ada", Birthday: "1990-06-12", BirthdayAlert: true,
	}})
	a := f.alert(t, "birthday-c1")

	_, err := f.sender.Send(ctx, a, false)
	var resErr *dispatch.ResolutionError
	assert.True(t, errors.As(err, &resErr))

	ok, err := f.sender.Send(ctx, a, true)
	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Empty(t, f.notifier.Sent())
}
