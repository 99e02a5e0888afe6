package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/store"
	th "github.com/desertthunder/gamescout/internal/testing"
)

func newTestManager(t *testing.T, gateway services.Gateway) *Manager {
	t.Helper()
	creds, err := store.Open(filepath.Join(t.TempDir(), "creds.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { creds.Close() })
	return NewManager(gateway, creds, shared.NewLogger(nil))
}

func TestManager(t *testing.T) {
	t.Run("Current provisions a guest on first run", func(t *testing.T) {
		calls := 0
		gateway := &th.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				calls++
				return &models.User{UserKey: "guest_1", IsGuest: true}, nil
			},
		}
		manager := newTestManager(t, gateway)

		user, err := manager.Current(context.Background())
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if user.UserKey != "guest_1" || !user.IsGuest {
			t.Errorf("unexpected user %+v", user)
		}
		if calls != 1 {
			t.Errorf("expected one provisioning call, got %d", calls)
		}

		// Second call reuses the stored session.
		again, err := manager.Current(context.Background())
		if err != nil {
			t.Fatalf("second Current failed: %v", err)
		}
		if again.UserKey != "guest_1" {
			t.Errorf("stored session not reused, got %+v", again)
		}
		if calls != 1 {
			t.Errorf("re-provisioned despite stored key, %d calls", calls)
		}
	})

	t.Run("Login replaces the guest session", func(t *testing.T) {
		gateway := &th.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				return &models.User{UserKey: "guest_1", IsGuest: true}, nil
			},
			LoginFunc: func(ctx context.Context, email, password string) (*models.User, error) {
				return &models.User{UserKey: "user_9", Email: email}, nil
			},
		}
		manager := newTestManager(t, gateway)

		if _, err := manager.Current(context.Background()); err != nil {
			t.Fatalf("Current failed: %v", err)
		}

		user, err := manager.Login(context.Background(), "a@b.test", "hunter2")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if user.UserKey != "user_9" {
			t.Errorf("unexpected user %+v", user)
		}

		current, err := manager.Current(context.Background())
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if current.UserKey != "user_9" || current.Email != "a@b.test" {
			t.Errorf("login not persisted, got %+v", current)
		}
	})

	t.Run("Login failure keeps the old session", func(t *testing.T) {
		gateway := &th.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				return &models.User{UserKey: "guest_1", IsGuest: true}, nil
			},
			LoginFunc: func(ctx context.Context, email, password string) (*models.User, error) {
				return nil, &services.APIError{Status: 401, Message: "invalid credentials"}
			},
		}
		manager := newTestManager(t, gateway)
		manager.Current(context.Background())

		if _, err := manager.Login(context.Background(), "a@b.test", "wrong"); err == nil {
			t.Fatal("expected login error")
		}

		current, err := manager.Current(context.Background())
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if current.UserKey != "guest_1" {
			t.Errorf("failed login clobbered the session: %+v", current)
		}
	})

	t.Run("Logout clears the session", func(t *testing.T) {
		provisions := 0
		gateway := &th.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				provisions++
				return &models.User{UserKey: "guest_n", IsGuest: true}, nil
			},
		}
		manager := newTestManager(t, gateway)
		manager.Current(context.Background())

		if err := manager.Logout(); err != nil {
			t.Fatalf("Logout failed: %v", err)
		}

		// Next Current provisions again.
		manager.Current(context.Background())
		if provisions != 2 {
			t.Errorf("expected re-provisioning after logout, got %d calls", provisions)
		}
	})

	t.Run("Current swaps a purged key for a fresh guest", func(t *testing.T) {
		provisions := 0
		gateway := &th.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				provisions++
				return &models.User{UserKey: fmt.Sprintf("guest_%d", provisions), IsGuest: true}, nil
			},
		}
		manager := newTestManager(t, gateway)
		manager.Current(context.Background())

		// The server forgets the stored key between invocations.
		gateway.VerifyFunc = func(ctx context.Context, userKey string) (*models.User, error) {
			return nil, &services.APIError{Status: 404, Message: "user_not_found"}
		}

		user, err := manager.Current(context.Background())
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if user.UserKey != "guest_2" {
			t.Errorf("expected a fresh guest, got %+v", user)
		}
		if provisions != 2 {
			t.Errorf("expected re-provisioning for the purged key, got %d calls", provisions)
		}
	})

	t.Run("Current keeps the session when the server is unreachable", func(t *testing.T) {
		provisions := 0
		gateway := &th.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				provisions++
				return &models.User{UserKey: "guest_1", IsGuest: true}, nil
			},
		}
		manager := newTestManager(t, gateway)
		manager.Current(context.Background())

		gateway.VerifyFunc = func(ctx context.Context, userKey string) (*models.User, error) {
			return nil, errors.New("connection refused")
		}

		user, err := manager.Current(context.Background())
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if user.UserKey != "guest_1" {
			t.Errorf("cached session not kept, got %+v", user)
		}
		if provisions != 1 {
			t.Errorf("re-provisioned despite a transient failure, %d calls", provisions)
		}
	})

	t.Run("Recover re-provisions on user_not_found", func(t *testing.T) {
		gateway := &th.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				return &models.User{UserKey: "guest_fresh", IsGuest: true}, nil
			},
		}
		manager := newTestManager(t, gateway)

		cause := &services.APIError{Status: 404, Message: "user_not_found"}
		user, recovered, err := manager.Recover(context.Background(), cause)
		if err != nil {
			t.Fatalf("Recover failed: %v", err)
		}
		if !recovered {
			t.Fatal("expected recovery for user_not_found")
		}
		if user.UserKey != "guest_fresh" {
			t.Errorf("unexpected user %+v", user)
		}

		current, _ := manager.Current(context.Background())
		if current.UserKey != "guest_fresh" {
			t.Errorf("recovered session not persisted: %+v", current)
		}
	})

	t.Run("Recover passes through other errors", func(t *testing.T) {
		manager := newTestManager(t, &th.MockGateway{})

		cause := errors.New("connection refused")
		_, recovered, err := manager.Recover(context.Background(), cause)
		if recovered {
			t.Fatal("recovered from a non-recoverable error")
		}
		if !errors.Is(err, cause) {
			t.Errorf("original error not passed through, got %v", err)
		}
	})
}
