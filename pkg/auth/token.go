// Package auth stores the bearer token sent to http(s) collection sources.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	TokenEnvVar = "CELLEVAL_TOKEN"

	keyringService = "celleval"
	keyringUser    = "source_token"
	tokenFileName  = "source_token"
	fileMode       = 0600
)

var ErrNoToken = errors.New("no token stored")

// Store keeps the token in the OS keychain and falls back to a file in Dir
// when no keychain is available.
type Store struct {
	Dir string
}

func (s *Store) tokenPath() string {
	return filepath.Join(s.Dir, tokenFileName)
}

// Save stores token, preferring the keychain.
func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}

	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		slog.Warn("keychain unavailable, falling back to file", "error", err)
		if err := os.WriteFile(s.tokenPath(), []byte(token), fileMode); err != nil {
			return fmt.Errorf("writing token file %s: %w", s.tokenPath(), err)
		}
		return nil
	}

	// keychain wins, drop any file copy
	os.Remove(s.tokenPath())
	return nil
}

// Get returns the stored token. A token found only in the file is moved to
// the keychain when one becomes available.
func (s *Store) Get() (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && token != "" {
		return token, nil
	}

	b, err := os.ReadFile(s.tokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("reading token file %s: %w", s.tokenPath(), err)
	}
	token = strings.TrimSpace(string(b))
	if token == "" {
		return "", ErrNoToken
	}

	if migrateErr := keyring.Set(keyringService, keyringUser, token); migrateErr == nil {
		slog.Info("migrated token from file to OS keychain")
		os.Remove(s.tokenPath())
	}

	return token, nil
}

// Delete removes the token from both the keychain and the file.
func (s *Store) Delete() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		slog.Debug("keychain delete failed", "error", err)
	}
	if err := os.Remove(s.tokenPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file %s: %w", s.tokenPath(), err)
	}
	return nil
}

// Resolve picks the token for a run: explicit value, then the
// CELLEVAL_TOKEN environment variable, then the store. An empty token
// with a nil error means no token is configured.
func Resolve(explicit string, s *Store) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if v := os.Getenv(TokenEnvVar); v != "" {
		return v, nil
	}
	if s == nil {
		return "", nil
	}
	token, err := s.Get()
	if errors.Is(err, ErrNoToken) {
		return "", nil
	}
	return token, err
}
