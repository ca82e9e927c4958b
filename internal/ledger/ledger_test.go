package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/tests/testutil"
)

func TestLedger_RecordAndQuery(t *testing.T) {
	ctx := context.Background()
	l := New(slog.Default(), testutil.NewTestStore(t))
	t0 := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	sent, err := l.WasSent(ctx, "birthday-c1")
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, l.Record(ctx, model.SentAlertRecord{
		AlertID: "birthday-c1", AlertType: model.AlertTypeBirthday, ContactID: "c1",
		SentAt: t0, DueDate: "2024-06-15",
	}))
	require.NoError(t, l.Record(ctx, model.SentAlertRecord{
		AlertID: "birthday-c1", AlertType: model.AlertTypeBirthday, ContactID: "c1",
		SentAt: t0.Add(48 * time.Hour), DueDate: "2024-06-15",
	}))

	sent, err = l.WasSent(ctx, "birthday-c1")
	require.NoError(t, err)
	assert.True(t, sent)

	last, err := l.LastSent(ctx, "birthday-c1")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.SentAt.Equal(t0.Add(48*time.Hour)))

	records, err := l.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestLedger_RecordRequiresAlertID(t *testing.T) {
	l := New(slog.Default(), testutil.NewTestStore(t))
	assert.Error(t, l.Record(context.Background(), model.SentAlertRecord{}))
}

func TestLedger_ClearOld(t *testing.T) {
	ctx := context.Background()
	l := New(slog.Default(), testutil.NewTestStore(t))
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Record(ctx, model.SentAlertRecord{AlertID: "old", SentAt: now.AddDate(0, 0, -40)}))
	require.NoError(t, l.Record(ctx, model.SentAlertRecord{AlertID: "new", SentAt: now.AddDate(0, 0, -5)}))

	removed, err := l.ClearOld(ctx, 30, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	sent, err := l.WasSent(ctx, "old")
	require.NoError(t, err)
	assert.False(t, sent)

	removed, err = l.ClearOld(ctx, 0, now)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestShouldSendReminder(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	sentAgo := func(d time.Duration) *model.SentAlertRecord {
		return &model.SentAlertRecord{AlertID: "x", SentAt: now.Add(-d)}
	}

	tests := []struct {
		name string
		last *model.SentAlertRecord
		freq model.ReminderFrequency
		want bool
	}{
		{"never sent", nil, model.FrequencyOnce, true},
		{"once never resends", sentAgo(365 * 24 * time.Hour), model.FrequencyOnce, false},
		{"unknown behaves like once", sentAgo(365 * 24 * time.Hour), "hourly", false},
		{"daily too early", sentAgo(23 * time.Hour), model.FrequencyDaily, false},
		{"daily on time", sentAgo(24 * time.Hour), model.FrequencyDaily, true},
		{"every 3 days too early", sentAgo(71 * time.Hour), model.FrequencyEveryThree, false},
		{"every 3 days on time", sentAgo(72 * time.Hour), model.FrequencyEveryThree, true},
		{"weekly too early", sentAgo(6 * 24 * time.Hour), model.FrequencyWeekly, false},
		{"weekly on time", sentAgo(8 * 24 * time.Hour), model.FrequencyWeekly, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldSendReminder(tt.last, tt.freq, now))
		})
	}
}

func TestLedger_ConcurrentRecordsAreKept(t *testing.T) {
	ctx := context.Background()
	l := New(slog.Default(), testutil.NewTestStore(t))

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Record(ctx, model.SentAlertRecord{AlertID: fmt.Sprintf("task-%d", i)}))
		}()
	}
	wg.Wait()

	recs, err := l.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 10)
}
