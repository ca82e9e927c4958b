// Package ledger records alert dispatches so auto-send stays idempotent and
// reminder cadence can be enforced.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/store"
)

// Ledger is an append-only log of sent alerts stored in the snapshot store.
type Ledger struct {
	store  store.Store
	logger *slog.Logger

	// mu serialises read-modify-write cycles on the snapshot.
	mu sync.Mutex
}

// New creates a Ledger backed by s.
func New(log *slog.Logger, s store.Store) *Ledger {
	return &Ledger{
		store:  s,
		logger: log.With(slog.String("service", "ledger")),
	}
}

// Record appends rec to the ledger.
func (l *Ledger) Record(ctx context.Context, rec model.SentAlertRecord) error {
	if strings.TrimSpace(rec.AlertID) == "" {
		return fmt.Errorf("sent alert record needs an alert id")
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.Records(ctx)
	if err != nil {
		return err
	}
	records = append(records, rec)

	if err := store.Save(ctx, l.store, store.KeySentAlerts, records); err != nil {
		return fmt.Errorf("saving sent alerts: %w", err)
	}
	return nil
}

// Records returns every record in insertion order.
func (l *Ledger) Records(ctx context.Context) ([]model.SentAlertRecord, error) {
	records, err := store.Load(ctx, l.store, store.KeySentAlerts, []model.SentAlertRecord{})
	if err != nil {
		return nil, fmt.Errorf("loading sent alerts: %w", err)
	}
	return records, nil
}

// WasSent reports whether alertID has ever been dispatched.
func (l *Ledger) WasSent(ctx context.Context, alertID string) (bool, error) {
	last, err := l.LastSent(ctx, alertID)
	if err != nil {
		return false, err
	}
	return last != nil, nil
}

// LastSent returns the most recent record for alertID, or nil.
func (l *Ledger) LastSent(ctx context.Context, alertID string) (*model.SentAlertRecord, error) {
	records, err := l.Records(ctx)
	if err != nil {
		return nil, err
	}

	var last *model.SentAlertRecord
	for i := range records {
		if records[i].AlertID != alertID {
			continue
		}
		if last == nil || !records[i].SentAt.Before(last.SentAt) {
			last = &records[i]
		}
	}
	return last, nil
}

// ClearOld drops records sent more than maxAgeDays before now and returns
// how many were removed.
func (l *Ledger) ClearOld(ctx context.Context, maxAgeDays int, now time.Time) (int, error) {
	if maxAgeDays <= 0 {
		return 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.Records(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := now.AddDate(0, 0, -maxAgeDays)
	kept := make([]model.SentAlertRecord, 0, len(records))
	for _, r := range records {
		if r.SentAt.Before(cutoff) {
			continue
		}
		kept = append(kept, r)
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := store.Save(ctx, l.store, store.KeySentAlerts, kept); err != nil {
		return 0, fmt.Errorf("saving sent alerts: %w", err)
	}
	l.logger.Info("cleared old sent alerts", slog.Int("removed", removed), slog.Int("max_age_days", maxAgeDays))
	return removed, nil
}

// Interval returns the minimum time between two sends of the same alert for
// freq. The second result is false for once (and unknown values), which
// never resend.
func Interval(freq model.ReminderFrequency) (time.Duration, bool) {
	switch freq {
	case model.FrequencyDaily:
		return 24 * time.Hour, true
	case model.FrequencyEveryThree:
		return 3 * 24 * time.Hour, true
	case model.FrequencyWeekly:
		return 7 * 24 * time.Hour, true
	}
	return 0, false
}

// ShouldSendReminder decides whether an alert last sent as described by
// last may be sent again at now.
func ShouldSendReminder(last *model.SentAlertRecord, freq model.ReminderFrequency, now time.Time) bool {
	if last == nil {
		return true
	}
	interval, repeats := Interval(freq)
	if !repeats {
		return false
	}
	return now.Sub(last.SentAt) >= interval
}
