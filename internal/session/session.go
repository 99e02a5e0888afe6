// Package session owns the identity lifecycle: guest provisioning, login,
// registration, and silent recovery when the server forgets a user key.
package session

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/store"
)

// Manager coordinates the credential store and the gateway auth calls.
// It is the single writer of the credential store.
type Manager struct {
	gateway services.Gateway
	creds   *store.CredentialStore
	logger  *log.Logger
}

// NewManager creates a Manager backed by the given gateway and store.
func NewManager(gateway services.Gateway, creds *store.CredentialStore, logger *log.Logger) *Manager {
	return &Manager{gateway: gateway, creds: creds, logger: logger}
}

// Current returns the active session, provisioning a guest when no key is
// stored. A stored key is verified against the server first: a key the server
// no longer knows silently becomes a fresh guest, while an unreachable server
// falls back to the cached profile.
func (m *Manager) Current(ctx context.Context) (*models.User, error) {
	userKey, err := m.creds.UserKey()
	if err != nil {
		return nil, err
	}
	if userKey == "" {
		return m.Provision(ctx)
	}

	verified, verifyErr := m.gateway.Verify(ctx, userKey)
	if services.IsUserNotFound(verifyErr) {
		m.logger.Debug("stored user key unknown to server, re-provisioning guest")
		return m.Provision(ctx)
	}

	profile, err := m.creds.Profile()
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}
	if verifyErr != nil {
		return &models.User{UserKey: userKey}, nil
	}
	return verified, nil
}

// Provision creates a guest session and persists it.
func (m *Manager) Provision(ctx context.Context) (*models.User, error) {
	user, err := m.gateway.CreateGuest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to provision guest: %w", err)
	}

	if err := m.persist(*user); err != nil {
		return nil, err
	}

	m.logger.Debug("provisioned guest session", "user_key", user.UserKey)
	return user, nil
}

// Login authenticates with credentials and replaces the stored session.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := m.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := m.persist(*user); err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates an account and replaces the stored session.
func (m *Manager) Register(ctx context.Context, email, password string) (*models.User, error) {
	user, err := m.gateway.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := m.persist(*user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears the stored session.
func (m *Manager) Logout() error {
	return m.creds.Clear()
}

// Recover handles the server-side user_not_found condition by silently
// provisioning a fresh guest session. It returns the new session and true
// when err was recoverable; otherwise it passes err through.
func (m *Manager) Recover(ctx context.Context, err error) (*models.User, bool, error) {
	if !services.IsUserNotFound(err) {
		return nil, false, err
	}

	m.logger.Debug("stored user key unknown to server, re-provisioning guest")
	user, provisionErr := m.Provision(ctx)
	if provisionErr != nil {
		return nil, false, provisionErr
	}
	return user, true, nil
}

func (m *Manager) persist(user models.User) error {
	if err := m.creds.SetUserKey(user.UserKey); err != nil {
		return err
	}
	return m.creds.SetProfile(user)
}
