package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/crm-alerts/internal/model"
)

// IMAPNotifier drops composed reminders into a shared mailbox folder with
// IMAP APPEND. A mail rule or shared-inbox workflow picks them up from
// there.
type IMAPNotifier struct {
	cfg      model.IMAPConfig
	from     string
	password string
	logger   *slog.Logger
	now      func() time.Time
}

// NewIMAPNotifier creates an IMAP drop-box transport.
func NewIMAPNotifier(log *slog.Logger, cfg model.IMAPConfig, from, password string) *IMAPNotifier {
	return &IMAPNotifier{
		cfg:      cfg,
		from:     from,
		password: password,
		logger:   log.With(slog.String("service", "notify-imap")),
		now:      time.Now,
	}
}

// IsEnabled reports whether the server, account and mailbox are set.
func (n *IMAPNotifier) IsEnabled() bool {
	return strings.TrimSpace(n.cfg.Host) != "" &&
		strings.TrimSpace(n.cfg.Username) != "" &&
		strings.TrimSpace(n.cfg.Mailbox) != "" &&
		n.password != ""
}

// connect dials the server and authenticates. The caller must log out.
func (n *IMAPNotifier) connect() (*imapclient.Client, error) {
	port := n.cfg.Port
	if port == "" {
		port = "993"
	}
	addr := n.cfg.Host + ":" + port

	var (
		client *imapclient.Client
		err    error
	)
	if n.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(n.cfg.Username, n.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", n.cfg.Username, err)
	}
	return client, nil
}

// SendAlert appends the composed reminder to the configured mailbox.
func (n *IMAPNotifier) SendAlert(ctx context.Context, p model.NotificationPayload) (bool, error) {
	msg, err := Compose(n.from, p, n.now())
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	client, err := n.connect()
	if err != nil {
		return false, err
	}
	defer func() { _ = client.Logout().Wait() }()

	cmd := client.Append(n.cfg.Mailbox, int64(len(msg)), &imap.AppendOptions{
		Time: n.now(),
	})
	if _, err := cmd.Write(msg); err != nil {
		_ = cmd.Close()
		return false, fmt.Errorf("writing message to %s: %w", n.cfg.Mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return false, fmt.Errorf("finishing append to %s: %w", n.cfg.Mailbox, err)
	}
	if _, err := cmd.Wait(); err != nil {
		return false, fmt.Errorf("appending to %s: %w", n.cfg.Mailbox, err)
	}

	n.logger.Debug("reminder appended", slog.String("mailbox", n.cfg.Mailbox), slog.String("to", p.OwnerEmail))
	return true, nil
}
