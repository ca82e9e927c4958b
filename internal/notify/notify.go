// Package notify delivers alert notifications over the configured transport.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nhle/crm-alerts/internal/dateutil"
	"github.com/nhle/crm-alerts/internal/model"
)

// Service is the outbound notification port used by dispatch.
type Service interface {
	// IsEnabled reports whether the transport is configured well enough
	// to attempt a send.
	IsEnabled() bool

	// SendAlert delivers one payload. A false result without error means
	// the transport declined the message.
	SendAlert(ctx context.Context, p model.NotificationPayload) (bool, error)
}

// Secret keys looked up when building a transport.
const (
	SecretSMTPPassword = "smtp-password"
	SecretIMAPPassword = "imap-password"
	SecretWebhookURL   = "webhook-url"
)

// SecretFunc returns the secret stored under key.
type SecretFunc func(key string) (string, error)

// New builds the Service selected by cfg.Transport. Missing secrets do not
// fail construction; the returned service reports IsEnabled() == false.
func New(log *slog.Logger, cfg model.NotificationConfig, secret SecretFunc) (Service, error) {
	lookup := func(key string) string {
		if secret == nil {
			return ""
		}
		v, err := secret(key)
		if err != nil {
			log.Debug("secret not available", slog.String("key", key), slog.Any("error", err))
			return ""
		}
		return strings.TrimSpace(v)
	}

	switch cfg.Transport {
	case model.TransportNone, "":
		return Disabled{}, nil
	case model.TransportSMTP:
		return NewSMTPNotifier(log, cfg.SMTP, cfg.From, lookup(SecretSMTPPassword)), nil
	case model.TransportWebhook:
		return NewWebhookNotifier(log, lookup(SecretWebhookURL), cfg.Webhook), nil
	case model.TransportIMAP:
		return NewIMAPNotifier(log, cfg.IMAP, cfg.From, lookup(SecretIMAPPassword)), nil
	case model.TransportOutbox:
		return NewOutboxNotifier(log, cfg.Outbox.Dir, cfg.From), nil
	default:
		return nil, fmt.Errorf("unknown notification transport %q", cfg.Transport)
	}
}

// Disabled is the Service used when no transport is configured.
type Disabled struct{}

// IsEnabled always returns false.
func (Disabled) IsEnabled() bool { return false }

// SendAlert always fails.
func (Disabled) SendAlert(context.Context, model.NotificationPayload) (bool, error) {
	return false, fmt.Errorf("notifications are disabled")
}

// Subject renders the subject line for a payload.
func Subject(p model.NotificationPayload) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(string(p.Priority)), p.Title)
}

// Body renders the plain-text body for a payload.
func Body(p model.NotificationPayload) string {
	var b strings.Builder
	b.WriteString(p.Description)
	b.WriteString("\n\n")

	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&b, "%-9s %s\n", label+":", value)
	}
	field("Type", string(p.AlertType))
	field("Priority", string(p.Priority))
	field("Due", fmt.Sprintf("%s (%s)", p.DueDate, dateutil.Phrase(p.DaysUntil)))
	field("Contact", p.ContactName)
	field("Account", p.AccountName)
	if p.OwnerEmail != "" {
		field("Owner", fmt.Sprintf("%s <%s>", p.OwnerName, p.OwnerEmail))
	} else {
		field("Owner", p.OwnerName)
	}
	if id := p.AdditionalData["alertId"]; id != "" {
		field("Alert", id)
	}
	return b.String()
}

func fromOrDefault(from string) string {
	if strings.TrimSpace(from) == "" {
		return "crm-alerts@localhost"
	}
	return strings.TrimSpace(from)
}
