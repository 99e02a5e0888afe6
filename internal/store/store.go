// Package store persists the session identity across client runs.
//
// The credential store is a durable key-value table holding exactly two
// entries: the opaque user key and the profile JSON blob. It performs no
// validation and has a single writer by construction of the auth flow.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
)

const (
	keyUserKey = "user_key"
	keyProfile = "user_profile"
)

// CredentialStore reads and writes session credentials in a SQLite table.
type CredentialStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the credential store at path. The parent
// directory is created for default locations under the home directory.
func Open(path string) (*CredentialStore, error) {
	expanded := shared.ExpandHome(path)
	if expanded != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := shared.NewDatabase(expanded)
	if err != nil {
		return nil, err
	}

	return New(db)
}

// Configure applies connection pool limits. Values at or below zero leave
// the driver defaults in place.
func (s *CredentialStore) Configure(maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 || maxIdleConns > 0 {
		shared.ConfigureDatabase(s.db, maxOpenConns, maxIdleConns)
	}
}

// New wraps an existing database connection and ensures the schema exists.
func New(db *sql.DB) (*CredentialStore, error) {
	schema := `
		CREATE TABLE IF NOT EXISTS credentials (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create credentials table: %w", err)
	}

	return &CredentialStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *CredentialStore) Close() error {
	return s.db.Close()
}

func (s *CredentialStore) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query credential %s: %w", key, err)
	}
	return value, nil
}

func (s *CredentialStore) set(key, value string) error {
	query := `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to store credential %s: %w", key, err)
	}
	return nil
}

// UserKey returns the stored user key, or "" when none is stored.
func (s *CredentialStore) UserKey() (string, error) {
	return s.get(keyUserKey)
}

// SetUserKey stores the opaque user key.
func (s *CredentialStore) SetUserKey(userKey string) error {
	return s.set(keyUserKey, userKey)
}

// Profile returns the stored user profile, or nil when none is stored.
func (s *CredentialStore) Profile() (*models.User, error) {
	blob, err := s.get(keyProfile)
	if err != nil {
		return nil, err
	}
	if blob == "" {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(blob), &user); err != nil {
		return nil, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return &user, nil
}

// SetProfile stores the user profile as a JSON blob.
func (s *CredentialStore) SetProfile(user models.User) error {
	blob, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return s.set(keyProfile, string(blob))
}

// Clear removes both stored entries. Only an explicit logout calls this.
func (s *CredentialStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
