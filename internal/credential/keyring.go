// Package credential stores the Eventify API token in the OS keyring,
// falling back to an encrypted file where no native backend exists.
package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "eventify"
	tokenKey    = "eventify-api-token"
)

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/eventify/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("eventify-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Token returns the stored API token.
func Token() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(tokenKey)
	if err != nil {
		return "", fmt.Errorf("reading api token: %w", err)
	}
	return string(item.Data), nil
}

// SaveToken stores the API token, replacing any previous one.
func SaveToken(token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Set(keyring.Item{Key: tokenKey, Data: []byte(token)}); err != nil {
		return fmt.Errorf("storing api token: %w", err)
	}
	return nil
}

// DeleteToken removes the stored API token on logout.
func DeleteToken() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(tokenKey); err != nil {
		return fmt.Errorf("deleting api token: %w", err)
	}
	return nil
}
