package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/nhle/crm-alerts/internal/model"
)

// SMTPNotifier sends reminders as e-mail through an SMTP relay.
type SMTPNotifier struct {
	cfg      model.SMTPConfig
	from     string
	password string
	logger   *slog.Logger
}

// NewSMTPNotifier creates an SMTP transport.
func NewSMTPNotifier(log *slog.Logger, cfg model.SMTPConfig, from, password string) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:      cfg,
		from:     from,
		password: password,
		logger:   log.With(slog.String("service", "notify-smtp")),
	}
}

// IsEnabled reports whether a host and sender are configured. When a
// username is set the password must be present too.
func (n *SMTPNotifier) IsEnabled() bool {
	if strings.TrimSpace(n.cfg.Host) == "" || strings.TrimSpace(n.from) == "" {
		return false
	}
	return n.cfg.Username == "" || n.password != ""
}

// SendAlert mails p to p.OwnerEmail.
func (n *SMTPNotifier) SendAlert(ctx context.Context, p model.NotificationPayload) (bool, error) {
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return false, fmt.Errorf("setting sender %q: %w", n.from, err)
	}
	if err := m.To(p.OwnerEmail); err != nil {
		return false, fmt.Errorf("setting recipient %q: %w", p.OwnerEmail, err)
	}
	m.Subject(Subject(p))
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, Body(p))

	client, err := mail.NewClient(n.cfg.Host, n.clientOptions()...)
	if err != nil {
		return false, fmt.Errorf("creating smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return false, fmt.Errorf("sending mail via %s: %w", n.cfg.Host, err)
	}

	n.logger.Debug("reminder mailed", slog.String("to", p.OwnerEmail))
	return true, nil
}

func (n *SMTPNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithTLSPortPolicy(tlsPolicy(n.cfg.TLS))}
	if n.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(n.cfg.Port))
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.password),
		)
	}
	return opts
}

func tlsPolicy(s string) mail.TLSPolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return mail.NoTLS
	case "opportunistic":
		return mail.TLSOpportunistic
	default:
		return mail.TLSMandatory
	}
}
