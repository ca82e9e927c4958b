// Package credential stores transport secrets in the OS keyring, with
// environment variables taking precedence.
package credential

import (
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "crmalerts"

// envVars maps secret keys to the environment variables that override them.
var envVars = map[string]string{
	"smtp-password": "CRM_SMTP_PASSWORD",
	"imap-password": "CRM_IMAP_PASSWORD",
	"webhook-url":   "CRM_WEBHOOK_URL",
}

// Keys lists the secret keys this application uses.
func Keys() []string {
	return []string{"smtp-password", "imap-password", "webhook-url"}
}

// EnvVar returns the environment variable that overrides key, if any.
func EnvVar(key string) (string, bool) {
	v, ok := envVars[key]
	return v, ok
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/crmalerts/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("crmalerts-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Lookup returns the secret for key from its environment variable when set,
// otherwise from the keyring.
func Lookup(key string) (string, error) {
	if env, ok := envVars[key]; ok {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v, nil
		}
	}
	return Get(key)
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       "crmalerts " + key,
		Description: "crmalerts notification secret",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
