package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Keyring coordinates of the RPC secret.
const (
	KeyringService = "buttonpad"
	KeyringUser    = "rpc"
)

var ErrNoSecret = errors.New("no rpc secret configured")

var (
	keyringSet = keyring.Set
	keyringGet = keyring.Get
	randRead   = rand.Read
)

// ResolveSecret returns the first non-empty of the given candidates (flag,
// environment, config file, in the caller's order) and falls back to the OS
// keyring.
func ResolveSecret(candidates ...string) (string, error) {
	for _, s := range candidates {
		if s != "" {
			return s, nil
		}
	}
	s, err := keyringGet(KeyringService, KeyringUser)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrNoSecret
	case err != nil:
		return "", fmt.Errorf("read keyring: %w", err)
	case s == "":
		return "", ErrNoSecret
	}
	return s, nil
}

// StoreSecret saves secret in the OS keyring. An empty secret is replaced
// by a generated one, which is returned.
func StoreSecret(secret string) (string, error) {
	if secret == "" {
		var err error
		if secret, err = GenerateSecret(); err != nil {
			return "", err
		}
	}
	if err := keyringSet(KeyringService, KeyringUser, secret); err != nil {
		return "", fmt.Errorf("write keyring: %w", err)
	}
	return secret, nil
}

// GenerateSecret returns 32 random bytes, hex encoded.
func GenerateSecret() (string, error) {
	key := make([]byte, 32)
	if _, err := randRead(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
