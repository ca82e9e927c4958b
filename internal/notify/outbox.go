package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nhle/crm-alerts/internal/model"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// OutboxNotifier writes each reminder as an .eml file into a directory.
type OutboxNotifier struct {
	dir    string
	from   string
	logger *slog.Logger
	now    func() time.Time
}

// NewOutboxNotifier creates a file outbox transport rooted at dir.
func NewOutboxNotifier(log *slog.Logger, dir, from string) *OutboxNotifier {
	return &OutboxNotifier{
		dir:    dir,
		from:   from,
		logger: log.With(slog.String("service", "notify-outbox")),
		now:    time.Now,
	}
}

// IsEnabled reports whether an outbox directory is configured.
func (n *OutboxNotifier) IsEnabled() bool {
	return strings.TrimSpace(n.dir) != ""
}

// SendAlert writes the composed message and returns true once it is on disk.
func (n *OutboxNotifier) SendAlert(_ context.Context, p model.NotificationPayload) (bool, error) {
	now := n.now()
	msg, err := Compose(n.from, p, now)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(n.dir, 0o755); err != nil {
		return false, fmt.Errorf("creating outbox %s: %w", n.dir, err)
	}

	id := p.AdditionalData["alertId"]
	if id == "" {
		id = string(p.AlertType)
	}
	name := fmt.Sprintf("%s-%s.eml", now.UTC().Format("20060102T150405.000000000"), unsafeFileChars.ReplaceAllString(id, "_"))
	path := filepath.Join(n.dir, name)

	if err := os.WriteFile(path, msg, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}

	n.logger.Debug("reminder written", slog.String("path", path))
	return true, nil
}
