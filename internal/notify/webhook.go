package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nhle/crm-alerts/internal/model"
)

// WebhookNotifier posts the payload as JSON to an HTTP flow endpoint.
// Any 2xx response counts as delivered; 429 responses are retried.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	maxRetries int
	logger     *slog.Logger
}

// NewWebhookNotifier creates a webhook transport for url.
func NewWebhookNotifier(log *slog.Logger, url string, cfg model.WebhookConfig) *WebhookNotifier {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookNotifier{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
		logger:     log.With(slog.String("service", "notify-webhook")),
	}
}

// IsEnabled reports whether a flow URL is configured.
func (n *WebhookNotifier) IsEnabled() bool {
	return n.url != ""
}

// SendAlert posts p and reports whether the endpoint accepted it.
func (n *WebhookNotifier) SendAlert(ctx context.Context, p model.NotificationPayload) (bool, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("marshaling notification payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(data))
		if err != nil {
			return false, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return false, fmt.Errorf("posting notification: %w", err)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429) by notification endpoint")
			wait := retryAfterDuration(resp, attempt)
			n.logger.Debug("webhook rate limited", slog.Duration("wait", wait))

			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return false, fmt.Errorf("notification endpoint returned %d: %s", resp.StatusCode, string(body))
		}
		return true, nil
	}

	return false, fmt.Errorf("max retries (%d) exceeded: %w", n.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and falls back to
// exponential backoff capped at 30s.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
