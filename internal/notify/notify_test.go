package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/crm-alerts/internal/model"
	"github.com/nhle/crm-alerts/internal/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePayload() model.NotificationPayload {
	return model.NotificationPayload{
		AlertType:   model.AlertTypeBirthday,
		Title:       "Birthday: Ada Lovelace",
		Description: "Ada Lovelace's birthday is in 5 days",
		ContactName: "Ada Lovelace",
		AccountName: "ACME",
		DueDate:     "2024-06-15",
		DaysUntil:   5,
		Priority:    model.PriorityMedium,
		OwnerName:   "Grace Hopper",
		OwnerEmail:  "grace@example.com",
		AdditionalData: map[string]string{
			"alertId":  "birthday-c1",
			"autoSent": "false",
		},
	}
}

func TestNew_SelectsTransport(t *testing.T) {
	log := discardLogger()
	secrets := func(key string) (string, error) {
		if key == notify.SecretWebhookURL {
			return "https://flow.example.com/hook", nil
		}
		return "", errors.New("not found")
	}

	svc, err := notify.New(log, model.NotificationConfig{Transport: model.TransportNone}, secrets)
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())

	svc, err = notify.New(log, model.NotificationConfig{Transport: model.TransportWebhook}, secrets)
	require.NoError(t, err)
	assert.True(t, svc.IsEnabled())

	svc, err = notify.New(log, model.NotificationConfig{
		Transport: model.TransportSMTP,
		From:      "crm@example.com",
		SMTP:      model.SMTPConfig{Host: "smtp.example.com", Username: "crm"},
	}, secrets)
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled(), "smtp without password")

	svc, err = notify.New(log, model.NotificationConfig{
		Transport: model.TransportIMAP,
		IMAP:      model.IMAPConfig{Host: "imap.example.com", Username: "crm", Mailbox: "Reminders"},
	}, secrets)
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled(), "imap without password")

	_, err = notify.New(log, model.NotificationConfig{Transport: "pigeon"}, secrets)
	assert.Error(t, err)
}

func TestWebhookNotifier_PostsPayload(t *testing.T) {
	var got model.NotificationPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := notify.NewWebhookNotifier(discardLogger(), srv.URL, model.WebhookConfig{TimeoutSec: 5})
	ok, err := n.SendAlert(context.Background(), samplePayload())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "grace@example.com", got.OwnerEmail)
	assert.Equal(t, "birthday-c1", got.AdditionalData["alertId"])
}

func TestWebhookNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "flow failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := notify.NewWebhookNotifier(discardLogger(), srv.URL, model.WebhookConfig{})
	ok, err := n.SendAlert(context.Background(), samplePayload())

	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestWebhookNotifier_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := notify.NewWebhookNotifier(discardLogger(), srv.URL, model.WebhookConfig{})
	ok, err := n.SendAlert(context.Background(), samplePayload())

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOutboxNotifier_WritesMessage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	n := notify.NewOutboxNotifier(discardLogger(), dir, "crm@example.com")
	require.True(t, n.IsEnabled())

	ok, err := n.SendAlert(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "birthday-c1")
	assert.Equal(t, ".eml", filepath.Ext(entries[0].Name()))

	f, err := os.Open(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	defer f.Close()

	mr, err := mail.CreateReader(f)
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "[MEDIUM] Birthday: Ada Lovelace", subject)

	to, err := mr.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "grace@example.com", to[0].Address)
	assert.Equal(t, "birthday-c1", mr.Header.Get("X-Crm-Alert-Id"))

	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Ada Lovelace's birthday is in 5 days")
	assert.Contains(t, string(body), "Grace Hopper <grace@example.com>")
}

func TestCompose_DefaultsSender(t *testing.T) {
	raw, err := notify.Compose("", samplePayload(), time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "crm-alerts@localhost")
}

func TestBody_OmitsEmptyFields(t *testing.T) {
	p := samplePayload()
	p.AccountName = ""
	p.OwnerEmail = ""

	body := notify.Body(p)

	assert.NotContains(t, body, "Account:")
	assert.Contains(t, body, "Owner:    Grace Hopper\n")
	assert.Contains(t, body, "Due:      2024-06-15 (in 5 days)")
}

func TestDisabled(t *testing.T) {
	var d notify.Disabled
	assert.False(t, d.IsEnabled())
	ok, err := d.SendAlert(context.Background(), samplePayload())
	assert.False(t, ok)
	assert.Error(t, err)
}
