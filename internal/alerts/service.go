package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/snooze"
	"github.com/nhle/crm-alerts/internal/store"
)

// ErrAlertNotFound is returned when an action names an alert id that the
// current records do not derive.
var ErrAlertNotFound = errors.New("alert not found")

// Sources bundles the CRM collections read from the snapshot store.
type Sources struct {
	Accounts []model.Account
	Contacts []model.Contact
	Tasks    []model.Task
	Owners   []model.RelationshipOwner
}

// Contact returns the contact with the given id.
func (s Sources) Contact(id string) (model.Contact, bool) {
	for _, c := range s.Contacts {
		if c.ID == id {
			return c, true
		}
	}
	return model.Contact{}, false
}

// Account returns the account with the given id.
func (s Sources) Account(id string) (model.Account, bool) {
	for _, a := range s.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return model.Account{}, false
}

// LoadSources reads every CRM collection from st.
func LoadSources(ctx context.Context, st store.Store) (Sources, error) {
	var (
		src Sources
		err error
	)
	if src.Accounts, err = store.Load(ctx, st, store.KeyAccounts, []model.Account{}); err != nil {
		return Sources{}, fmt.Errorf("loading accounts: %w", err)
	}
	if src.Contacts, err = store.Load(ctx, st, store.KeyContacts, []model.Contact{}); err != nil {
		return Sources{}, fmt.Errorf("loading contacts: %w", err)
	}
	if src.Tasks, err = store.Load(ctx, st, store.KeyTasks, []model.Task{}); err != nil {
		return Sources{}, fmt.Errorf("loading tasks: %w", err)
	}
	if src.Owners, err = store.Load(ctx, st, store.KeyRelationshipOwners, []model.RelationshipOwner{}); err != nil {
		return Sources{}, fmt.Errorf("loading relationship owners: %w", err)
	}
	return src, nil
}

// Service runs derivation against the snapshot store and applies the
// user's state changes. Only the alert-state snapshot, the settings, the
// auto-send toggle and the snooze registry are ever written.
type Service struct {
	store   store.Store
	engine  *Engine
	snoozes *snooze.Registry
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a Service. now may be nil, in which case time.Now is
// used.
func NewService(log *slog.Logger, st store.Store, snoozes *snooze.Registry, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:   st,
		engine:  NewEngine(log),
		snoozes: snoozes,
		logger:  log.With(slog.String("service", "alert-state")),
		now:     now,
	}
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Sources loads the CRM collections.
func (s *Service) Sources(ctx context.Context) (Sources, error) {
	return LoadSources(ctx, s.store)
}

// Settings returns the persisted alert settings, or the defaults when none
// have been saved.
func (s *Service) Settings(ctx context.Context) (model.AlertSettings, error) {
	settings, err := store.Load(ctx, s.store, store.KeyAlertSettings, model.DefaultAlertSettings())
	if err != nil {
		s.logger.Warn("alert settings unreadable, using defaults", slog.Any("error", err))
		return model.DefaultAlertSettings(), nil
	}
	if settings.ReminderFrequency == "" {
		settings.ReminderFrequency = model.FrequencyOnce
	}
	return settings, nil
}

// SaveSettings validates and persists settings.
func (s *Service) SaveSettings(ctx context.Context, settings model.AlertSettings) error {
	if err := ValidateSettings(settings); err != nil {
		return err
	}
	if err := store.Save(ctx, s.store, store.KeyAlertSettings, settings); err != nil {
		return fmt.Errorf("saving alert settings: %w", err)
	}
	return nil
}

// ValidateSettings rejects unknown lead options and frequencies.
func ValidateSettings(settings model.AlertSettings) error {
	categories := map[string][]model.LeadOption{
		"birthday":    settings.BirthdayAlertOptions,
		"nextContact": settings.NextContactAlertOptions,
		"task":        settings.TaskAlertOptions,
		"jbp":         settings.JBPAlertOptions,
		"event":       settings.EventAlertOptions,
	}
	for name, opts := range categories {
		for _, o := range opts {
			if _, ok := o.Days(); !ok {
				return fmt.Errorf("%s alert options: unknown lead option %q", name, o)
			}
		}
	}
	switch settings.ReminderFrequency {
	case model.FrequencyOnce, model.FrequencyDaily, model.FrequencyEveryThree, model.FrequencyWeekly:
	default:
		return fmt.Errorf("unknown reminder frequency %q", settings.ReminderFrequency)
	}
	return nil
}

// AutoSendEnabled reports the persisted auto-send toggle. It defaults to off.
func (s *Service) AutoSendEnabled(ctx context.Context) (bool, error) {
	enabled, err := store.Load(ctx, s.store, store.KeyAutoSendEnabled, false)
	if err != nil {
		return false, fmt.Errorf("loading auto-send toggle: %w", err)
	}
	return enabled, nil
}

// SetAutoSend persists the auto-send toggle.
func (s *Service) SetAutoSend(ctx context.Context, enabled bool) error {
	if err := store.Save(ctx, s.store, store.KeyAutoSendEnabled, enabled); err != nil {
		return fmt.Errorf("saving auto-send toggle: %w", err)
	}
	return nil
}

// Refresh prunes expired snoozes, derives alerts from the current records
// and returns them merged with saved state and filtered by active snoozes.
func (s *Service) Refresh(ctx context.Context) ([]model.Alert, error) {
	now := s.now()

	snoozed, err := s.snoozes.Active(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("reading snoozes: %w", err)
	}
	in, err := s.input(ctx, now)
	if err != nil {
		return nil, err
	}
	in.Snoozed = snoozed

	alerts := s.engine.Derive(in)
	s.logger.Debug("alerts derived", slog.Int("count", len(alerts)))
	return alerts, nil
}

// Find returns the alert with the given id, including snoozed ones.
func (s *Service) Find(ctx context.Context, id string) (model.Alert, error) {
	in, err := s.input(ctx, s.now())
	if err != nil {
		return model.Alert{}, err
	}
	for _, a := range Merge(s.engine.Candidates(in), in.Prior) {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Alert{}, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
}

// Complete marks the alert done.
func (s *Service) Complete(ctx context.Context, id string) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	at := s.now()
	return s.updateState(ctx, model.AlertState{
		ID:          id,
		Status:      model.AlertStatusCompleted,
		IsCompleted: true,
		CompletedAt: &at,
	})
}

// Reopen returns a completed or dismissed alert to pending.
func (s *Service) Reopen(ctx context.Context, id string) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	return s.updateState(ctx, model.AlertState{ID: id, Status: model.AlertStatusPending})
}

// Dismiss hides the alert. Dismissal is persisted and survives reloads.
func (s *Service) Dismiss(ctx context.Context, id string) error {
	if _, err := s.Find(ctx, id); err != nil {
		return err
	}
	return s.updateState(ctx, model.AlertState{ID: id, Status: model.AlertStatusDismissed})
}

// Snooze hides the alert for the given number of days.
func (s *Service) Snooze(ctx context.Context, id string, days int) (model.SnoozedAlert, error) {
	if _, err := s.Find(ctx, id); err != nil {
		return model.SnoozedAlert{}, err
	}
	return s.snoozes.Snooze(ctx, id, days, s.now())
}

// Unsnooze removes any snooze on the alert.
func (s *Service) Unsnooze(ctx context.Context, id string) error {
	return s.snoozes.Unsnooze(ctx, id)
}

func (s *Service) input(ctx context.Context, now time.Time) (Input, error) {
	src, err := s.Sources(ctx)
	if err != nil {
		return Input{}, err
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return Input{}, err
	}
	prior, err := s.states(ctx)
	if err != nil {
		return Input{}, err
	}
	return Input{
		Accounts: src.Accounts,
		Contacts: src.Contacts,
		Tasks:    src.Tasks,
		Settings: settings,
		Prior:    prior,
		Now:      now,
	}, nil
}

func (s *Service) states(ctx context.Context) ([]model.AlertState, error) {
	states, err := store.Load(ctx, s.store, store.KeyAlertStates, []model.AlertState{})
	if err != nil {
		s.logger.Warn("saved alert state unreadable, starting empty", slog.Any("error", err))
		return []model.AlertState{}, nil
	}
	return states, nil
}

// updateState replaces the saved state for st.ID. Pending entries are
// dropped since pending is the default.
func (s *Service) updateState(ctx context.Context, st model.AlertState) error {
	states, err := s.states(ctx)
	if err != nil {
		return err
	}

	next := make([]model.AlertState, 0, len(states)+1)
	for _, existing := range states {
		if existing.ID != st.ID {
			next = append(next, existing)
		}
	}
	if st.Status != model.AlertStatusPending {
		next = append(next, st)
	}

	if err := store.Save(ctx, s.store, store.KeyAlertStates, next); err != nil {
		return fmt.Errorf("saving alert state: %w", err)
	}
	s.logger.Info("alert state updated", slog.String("alert_id", st.ID), slog.String("status", string(st.Status)))
	return nil
}
