package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/nhle/crm-alerts/internal/alerts"
	"github.com/nhle/crm-alerts/internal/ledger"
	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/notify"
)

// Sender dispatches single alerts and records successful sends.
type Sender struct {
	notifier notify.Service
	ledger   *ledger.Ledger
	alerts   *alerts.Service
	logger   *slog.Logger

	// mu keeps dispatch strictly serial across manual sends and auto-send
	// passes.
	mu sync.Mutex
}

// NewSender creates a Sender.
func NewSender(log *slog.Logger, n notify.Service, l *ledger.Ledger, svc *alerts.Service) *Sender {
	return &Sender{
		notifier: n,
		ledger:   l,
		alerts:   svc,
		logger:   log.With(slog.String("service", "dispatch")),
	}
}

// Enabled reports whether the notification service can send.
func (s *Sender) Enabled() bool {
	return s.notifier != nil && s.notifier.IsEnabled()
}

// Send dispatches a. It returns true when the notification service accepted
// the alert. In auto mode every failure is logged and reported as false
// with a nil error, and alerts the reminder cadence does not allow yet are
// skipped. Manual sends always go out and surface their errors.
func (s *Sender) Send(ctx context.Context, a model.Alert, auto bool) (bool, error) {
	s.mu.Lock()
	sent, err := s.send(ctx, a, auto)
	s.mu.Unlock()
	if err == nil {
		return sent, nil
	}

	log := s.logger.With(
		slog.String("alert_id", a.ID),
		slog.Bool("auto", auto),
	)
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		log = log.With(slog.Any("attempts", resErr.Attempts))
	}
	if auto {
		log.Warn("auto-send skipped alert", slog.Any("error", err))
		return sent, nil
	}
	log.Error("send failed", slog.Any("error", err))
	return sent, err
}

func (s *Sender) send(ctx context.Context, a model.Alert, auto bool) (bool, error) {
	if !s.Enabled() {
		return false, ErrServiceDisabled
	}
	if !a.Type.IsDispatchable() {
		return false, fmt.Errorf("%w: %s", ErrNotDispatchable, a.Type)
	}

	now := s.alerts.Now()
	if auto {
		settings, err := s.alerts.Settings(ctx)
		if err != nil {
			return false, err
		}
		last, err := s.ledger.LastSent(ctx, a.ID)
		if err != nil {
			return false, err
		}
		if !ledger.ShouldSendReminder(last, settings.ReminderFrequency, now) {
			s.logger.Debug("reminder not due yet", slog.String("alert_id", a.ID))
			return false, nil
		}
	}

	src, err := s.alerts.Sources(ctx)
	if err != nil {
		return false, err
	}
	res, err := Resolve(a, src)
	if err != nil {
		return false, err
	}

	payload := Payload(a, res, src, auto)
	ok, err := s.notifier.SendAlert(ctx, payload)
	if err != nil {
		return false, &TransportError{AlertID: a.ID, Err: err}
	}
	if !ok {
		return false, &TransportError{AlertID: a.ID, Err: errors.New("notification service rejected the message")}
	}

	s.logger.Info("alert sent",
		slog.String("alert_id", a.ID),
		slog.String("to", res.Email),
		slog.String("resolved_from", res.Source),
		slog.Bool("auto", auto),
	)

	err = s.ledger.Record(ctx, model.SentAlertRecord{
		AlertID:   a.ID,
		AlertType: a.Type,
		ContactID: a.ContactID,
		SentAt:    now,
		DueDate:   a.DueDate,
		AutoSent:  auto,
	})
	if err != nil {
		return true, fmt.Errorf("recording sent alert: %w", err)
	}
	return true, nil
}

// Payload builds the notification payload for a resolved alert.
func Payload(a model.Alert, res Resolution, src alerts.Sources, auto bool) model.NotificationPayload {
	p := model.NotificationPayload{
		AlertType:   a.Type,
		Title:       a.Title,
		Description: a.Description,
		DueDate:     a.DueDate,
		DaysUntil:   a.DaysUntil,
		Priority:    a.Priority,
		OwnerName:   a.ContactOwner,
		OwnerEmail:  res.Email,
		AdditionalData: map[string]string{
			"alertId":      a.ID,
			"relatedId":    a.RelatedID,
			"relatedType":  string(a.RelatedType),
			"autoSent":     strconv.FormatBool(auto),
			"resolvedFrom": res.Source,
		},
	}

	accountID := a.AccountID
	if c, ok := src.Contact(a.ContactID); ok {
		p.ContactName = c.FullName()
		p.AdditionalData["contactId"] = c.ID
		if accountID == "" {
			accountID = c.AccountID
		}
	}
	if acct, ok := src.Account(accountID); ok {
		p.AccountName = acct.AccountName
		p.AdditionalData["accountId"] = acct.ID
	}
	if a.VicePresident != "" {
		p.AdditionalData["vicePresident"] = a.VicePresident
	}
	return p
}
