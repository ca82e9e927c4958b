package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Notification transport names.
const (
	TransportNone    = "none"
	TransportSMTP    = "smtp"
	TransportWebhook = "webhook"
	TransportIMAP    = "imap"
	TransportOutbox  = "outbox"
)

// StorageConfig locates the snapshot database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SMTPConfig holds the outbound mail server settings. The password is kept
// in the keyring, not in the config file.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`

	// TLS is one of "mandatory", "opportunistic" or "none".
	TLS string `mapstructure:"tls" yaml:"tls"`
}

// WebhookConfig holds settings for the HTTP flow transport. The flow URL is
// a secret and lives in the keyring.
type WebhookConfig struct {
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// IMAPConfig holds settings for the shared-mailbox transport.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Mailbox  string `mapstructure:"mailbox" yaml:"mailbox"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// OutboxConfig holds settings for the file outbox transport.
type OutboxConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// NotificationConfig selects and configures the notification transport.
type NotificationConfig struct {
	// Transport is one of the Transport* constants.
	Transport string        `mapstructure:"transport" yaml:"transport"`
	From      string        `mapstructure:"from" yaml:"from"`
	SMTP      SMTPConfig    `mapstructure:"smtp" yaml:"smtp"`
	Webhook   WebhookConfig `mapstructure:"webhook" yaml:"webhook"`
	IMAP      IMAPConfig    `mapstructure:"imap" yaml:"imap"`
	Outbox    OutboxConfig  `mapstructure:"outbox" yaml:"outbox"`
}

// AutoSendConfig tunes the auto-send scheduler.
type AutoSendConfig struct {
	// ThrottleMs is the pause between two consecutive dispatches.
	ThrottleMs int `mapstructure:"throttle_ms" yaml:"throttle_ms"`

	// ClearSentAfterDays drops ledger records older than this before each pass.
	ClearSentAfterDays int `mapstructure:"clear_sent_after_days" yaml:"clear_sent_after_days"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Storage      StorageConfig      `mapstructure:"storage" yaml:"storage"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
	Notification NotificationConfig `mapstructure:"notification" yaml:"notification"`
	AutoSend     AutoSendConfig     `mapstructure:"autosend" yaml:"autosend"`
}

// configDir returns ~/.config/crmalerts, or the working directory when the
// home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "crmalerts")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/crmalerts/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Path: filepath.Join(configDir(), "crm.db"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Notification: NotificationConfig{
			Transport: TransportNone,
			SMTP: SMTPConfig{
				Port: 587,
				TLS:  "mandatory",
			},
			Webhook: WebhookConfig{
				TimeoutSec: 30,
			},
			IMAP: IMAPConfig{
				Port:    "993",
				Mailbox: "Reminders",
				TLS:     true,
			},
			Outbox: OutboxConfig{
				Dir: filepath.Join(configDir(), "outbox"),
			},
		},
		AutoSend: AutoSendConfig{
			ThrottleMs:         1000,
			ClearSentAfterDays: 90,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("storage.path", def.Storage.Path)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("notification.transport", def.Notification.Transport)
	v.SetDefault("notification.smtp.port", def.Notification.SMTP.Port)
	v.SetDefault("notification.smtp.tls", def.Notification.SMTP.TLS)
	v.SetDefault("notification.webhook.timeout_sec", def.Notification.Webhook.TimeoutSec)
	v.SetDefault("notification.imap.port", def.Notification.IMAP.Port)
	v.SetDefault("notification.imap.mailbox", def.Notification.IMAP.Mailbox)
	v.SetDefault("notification.imap.tls", def.Notification.IMAP.TLS)
	v.SetDefault("notification.outbox.dir", def.Notification.Outbox.Dir)
	v.SetDefault("autosend.throttle_ms", def.AutoSend.ThrottleMs)
	v.SetDefault("autosend.clear_sent_after_days", def.AutoSend.ClearSentAfterDays)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.AutoSend.ThrottleMs < 0 {
		cfg.AutoSend.ThrottleMs = 0
	}
	if cfg.Notification.Transport == "" {
		cfg.Notification.Transport = TransportNone
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)
	v.Set("notification", cfg.Notification)
	v.Set("autosend", cfg.AutoSend)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
