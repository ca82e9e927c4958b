package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAppConfig(), cfg)
	assert.Equal(t, TransportNone, cfg.Notification.Transport)
	assert.Equal(t, 1000, cfg.AutoSend.ThrottleMs)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  path: /tmp/crm.db
notification:
  transport: smtp
  smtp:
    host: mail.example.com
autosend:
  throttle_ms: -5
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/crm.db", cfg.Storage.Path)
	assert.Equal(t, TransportSMTP, cfg.Notification.Transport)
	assert.Equal(t, "mail.example.com", cfg.Notification.SMTP.Host)
	assert.Equal(t, 587, cfg.Notification.SMTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 0, cfg.AutoSend.ThrottleMs)
	assert.Equal(t, 90, cfg.AutoSend.ClearSentAfterDays)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.Notification.Transport = TransportOutbox
	cfg.Notification.Outbox.Dir = "/var/spool/crm"

	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, TransportOutbox, got.Notification.Transport)
	assert.Equal(t, "/var/spool/crm", got.Notification.Outbox.Dir)
}
