// Package credential stores secrets in the OS keyring so tokens never have
// to live in the config file. Environment variables always win over the
// keyring, which keeps CI and one-off runs simple.
package credential

import (
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "repowatch"

// Credential names understood by Resolve and the credential CLI command.
const (
	KeyGitHubToken       = "github_token"
	KeyDiscordWebhookURL = "discord_webhook_url"
	KeyAnthropicAPIKey   = "anthropic_api_key"
)

// envNames maps credential names to their environment variable overrides.
var envNames = map[string]string{
	KeyGitHubToken:       "GITHUB_TOKEN",
	KeyDiscordWebhookURL: "DISCORD_WEBHOOK_URL",
	KeyAnthropicAPIKey:   "ANTHROPIC_API_KEY",
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
		FileDir:                  "~/.config/repowatch/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("repowatch-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
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
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// Resolve returns the credential value, preferring the environment
// variable, then the supplied config file value, then the keyring. An empty
// string means the credential is simply not configured; that is not an
// error here because some credentials are optional.
func Resolve(key, configValue string) string {
	if env, ok := envNames[key]; ok {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	if configValue != "" {
		return configValue
	}

	v, err := Get(key)
	if err != nil {
		return ""
	}
	return v
}
