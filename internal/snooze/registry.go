// Package snooze keeps the user's snoozed alert ids.
package snooze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/store"
)

// Set is a read-only view of active snoozes keyed by alert id.
type Set map[string]time.Time

// Contains reports whether alertID is snoozed at now.
func (s Set) Contains(alertID string, now time.Time) bool {
	until, ok := s[alertID]
	return ok && now.Before(until)
}

// Registry persists snoozes in the snapshot store. Expired entries are
// dropped the next time the registry is read.
type Registry struct {
	store  store.Store
	logger *slog.Logger
}

// NewRegistry creates a Registry backed by s.
func NewRegistry(log *slog.Logger, s store.Store) *Registry {
	return &Registry{
		store:  s,
		logger: log.With(slog.String("service", "snooze")),
	}
}

// Snooze hides alertID for the given number of days from now. Snoozing an
// already snoozed alert replaces its deadline.
func (r *Registry) Snooze(ctx context.Context, alertID string, days int, now time.Time) (model.SnoozedAlert, error) {
	if strings.TrimSpace(alertID) == "" {
		return model.SnoozedAlert{}, fmt.Errorf("alert id is required")
	}
	if days < 1 {
		return model.SnoozedAlert{}, fmt.Errorf("snooze days must be at least 1, got %d", days)
	}

	entries, err := r.load(ctx)
	if err != nil {
		return model.SnoozedAlert{}, err
	}

	entry := model.SnoozedAlert{
		AlertID:     alertID,
		SnoozeUntil: now.AddDate(0, 0, days),
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.AlertID != alertID {
			kept = append(kept, e)
		}
	}
	kept = append(kept, entry)

	if err := store.Save(ctx, r.store, store.KeySnoozedAlerts, kept); err != nil {
		return model.SnoozedAlert{}, fmt.Errorf("saving snoozed alerts: %w", err)
	}
	return entry, nil
}

// Unsnooze removes any snooze for alertID.
func (r *Registry) Unsnooze(ctx context.Context, alertID string) error {
	entries, err := r.load(ctx)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.AlertID != alertID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	return store.Save(ctx, r.store, store.KeySnoozedAlerts, kept)
}

// Active returns the unexpired snoozes at now. Expired entries are pruned
// from the store as part of the read.
func (r *Registry) Active(ctx context.Context, now time.Time) (Set, error) {
	entries, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	set := make(Set, len(entries))
	kept := make([]model.SnoozedAlert, 0, len(entries))
	for _, e := range entries {
		if !now.Before(e.SnoozeUntil) {
			continue
		}
		set[e.AlertID] = e.SnoozeUntil
		kept = append(kept, e)
	}

	if len(kept) != len(entries) {
		r.logger.Debug("pruned expired snoozes", slog.Int("count", len(entries)-len(kept)))
		if err := store.Save(ctx, r.store, store.KeySnoozedAlerts, kept); err != nil {
			return nil, fmt.Errorf("saving snoozed alerts: %w", err)
		}
	}
	return set, nil
}

// IsSnoozed reports whether alertID is snoozed at now.
func (r *Registry) IsSnoozed(ctx context.Context, alertID string, now time.Time) (bool, error) {
	set, err := r.Active(ctx, now)
	if err != nil {
		return false, err
	}
	return set.Contains(alertID, now), nil
}

func (r *Registry) load(ctx context.Context) ([]model.SnoozedAlert, error) {
	entries, err := store.Load(ctx, r.store, store.KeySnoozedAlerts, []model.SnoozedAlert{})
	if err != nil {
		// A corrupt snapshot must not block alerting; start over.
		r.logger.Warn("discarding unreadable snoozed alerts", slog.Any("error", err))
		return []model.SnoozedAlert{}, nil
	}
	return entries, nil
}
