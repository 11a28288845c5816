// Package config persists the CLI's connection profile as a TOML file.
// Only non-secret identifiers are stored; the client secret always comes
// from the environment or an interactive prompt.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ErrNoProfile indicates no profile has been saved yet.
var ErrNoProfile = errors.New("config: no connection profile saved")

// Profile is the stored connection configuration.
type Profile struct {
	// Region is the provider region identifier (EU, US, ...).
	Region string `toml:"region"`
	// ClientID is the OAuth2 client id.
	ClientID string `toml:"client_id"`
	// BaseURL overrides the region's base URL for non-standard deployments.
	BaseURL string `toml:"base_url,omitempty"`
	// PageSize is the default page size for searches.
	PageSize int `toml:"page_size,omitempty"`
}

// Store reads and writes the profile file.
type Store struct {
	path string
}

// NewStore creates a store at the given path, or the default
// ~/.mimecast/config.toml when path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".mimecast", "config.toml")
	}
	return &Store{path: path}, nil
}

// Path returns the profile file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the stored profile. Returns ErrNoProfile when none exists.
func (s *Store) Load() (*Profile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var profile Profile
	if err := toml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &profile, nil
}

// Save writes the profile, creating the parent directory as needed. The
// file is user-only: it holds no secret, but the client id alone is best
// not shared.
func (s *Store) Save(profile *Profile) error {
	data, err := toml.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Delete removes the stored profile. Deleting a missing profile is not an
// error.
func (s *Store) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove profile: %w", err)
	}
	return nil
}
