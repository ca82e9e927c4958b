package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/crm-alerts/internal/model"
)

// Notifier is an in-memory notification service that records payloads.
type Notifier struct {
	mu sync.Mutex

	Disabled bool
	Err      error
	Reject   bool

	// FailFor makes SendAlert fail for payloads with these alert ids.
	FailFor map[string]error

	// Delay holds each SendAlert in flight for this long.
	Delay time.Duration

	sent        []model.NotificationPayload
	inFlight    int
	maxInFlight int
}

// IsEnabled reports !Disabled.
func (n *Notifier) IsEnabled() bool { return !n.Disabled }

// SendAlert records p unless configured to fail.
func (n *Notifier) SendAlert(_ context.Context, p model.NotificationPayload) (bool, error) {
	n.mu.Lock()
	n.inFlight++
	n.maxInFlight = max(n.maxInFlight, n.inFlight)
	n.mu.Unlock()

	time.Sleep(n.Delay)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.inFlight--

	if err, ok := n.FailFor[p.AdditionalData["alertId"]]; ok {
		return false, err
	}
	if n.Err != nil {
		return false, n.Err
	}
	if n.Reject {
		return false, nil
	}
	n.sent = append(n.sent, p)
	return true, nil
}

// Sent returns a copy of the recorded payloads.
func (n *Notifier) Sent() []model.NotificationPayload {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]model.NotificationPayload, len(n.sent))
	copy(out, n.sent)
	return out
}

// MaxInFlight returns the highest number of concurrent SendAlert calls seen.
func (n *Notifier) MaxInFlight() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.maxInFlight
}
