package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/session"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/store"
	th "github.com/desertthunder/gamescout/internal/testing"
)

// newChatModel builds a Model with a resolved guest session so chat commands
// can run without the Init sequence.
func newChatModel(t *testing.T, gateway services.Gateway) *Model {
	t.Helper()

	creds, err := store.Open(filepath.Join(t.TempDir(), "creds.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { creds.Close() })

	m := NewModel(context.Background(), gateway, session.NewManager(gateway, creds, shared.NewLogger(nil)), nil)
	m.user = &models.User{UserKey: "guest_1", IsGuest: true}
	return m
}

func userMessages(m *Model) int {
	count := 0
	for _, message := range m.transcript.Messages() {
		if message.Role == models.RoleUser {
			count++
		}
	}
	return count
}

func TestApplyStreamClosed(t *testing.T) {
	t.Run("failure before the first chunk drops the placeholder", func(t *testing.T) {
		m := newChatModel(t, &th.MockGateway{})
		m.send("any good roguelikes?")

		m.applyStreamClosed(streamClosedMsg{
			targetID: m.targetID,
			err:      fmt.Errorf("%w: dial ws://api/chat/stream", shared.ErrStreamClosed),
		})

		messages := m.transcript.Messages()
		if len(messages) != 1 {
			t.Fatalf("expected only the user message, transcript has %d", len(messages))
		}
		if messages[0].Role != models.RoleUser {
			t.Errorf("surviving message has role %q, not the user prompt", messages[0].Role)
		}
		if m.streaming || m.waiting {
			t.Error("stream flags not cleared")
		}
	})

	t.Run("mid-stream failure keeps the partial message", func(t *testing.T) {
		m := newChatModel(t, &th.MockGateway{})
		m.send("any good roguelikes?")
		m.applyChunk(chunkMsg{
			targetID: m.targetID,
			chunk:    services.Chunk{Type: services.ChunkContent, Content: "Try Starfall"},
		})

		m.applyStreamClosed(streamClosedMsg{
			targetID:  m.targetID,
			delivered: true,
			err:       errors.New("connection reset"),
		})

		messages := m.transcript.Messages()
		if len(messages) != 2 {
			t.Fatalf("expected user and partial assistant messages, got %d", len(messages))
		}
		last := messages[1]
		if last.Content != "Try Starfall" {
			t.Errorf("partial content lost: %q", last.Content)
		}
		if last.Streaming {
			t.Error("message still marked streaming after failure")
		}
	})

	t.Run("clean finish leaves the transcript alone", func(t *testing.T) {
		m := newChatModel(t, &th.MockGateway{})
		m.send("any good roguelikes?")
		m.applyChunk(chunkMsg{
			targetID: m.targetID,
			chunk:    services.Chunk{Type: services.ChunkContent, Content: "Try Starfall"},
		})
		m.applyChunk(chunkMsg{targetID: m.targetID, chunk: services.Chunk{Type: services.ChunkDone}})

		m.applyStreamClosed(streamClosedMsg{targetID: m.targetID, delivered: true})

		messages := m.transcript.Messages()
		if len(messages) != 2 {
			t.Fatalf("expected user and assistant messages, got %d", len(messages))
		}
		if messages[1].Content != "Try Starfall" {
			t.Errorf("reply lost: %q", messages[1].Content)
		}
	})
}

func TestSilentSessionRecovery(t *testing.T) {
	t.Run("retries the prompt without repeating it", func(t *testing.T) {
		gateway := &th.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				return &models.User{UserKey: "guest_fresh", IsGuest: true}, nil
			},
		}
		m := newChatModel(t, gateway)
		m.send("recommend an RPG")

		cause := &services.APIError{Status: 404, Message: "user_not_found"}
		_, cmd := m.applyStreamClosed(streamClosedMsg{targetID: m.targetID, err: cause})
		if cmd == nil {
			t.Fatal("expected a recovery command")
		}

		raw := cmd()
		recovered, ok := raw.(sessionRecoveredMsg)
		if !ok {
			t.Fatalf("expected sessionRecoveredMsg, got %T", raw)
		}
		if recovered.user.UserKey != "guest_fresh" || recovered.prompt != "recommend an RPG" {
			t.Errorf("recovery carried %+v with prompt %q", recovered.user, recovered.prompt)
		}

		m.Update(recovered)

		if got := userMessages(m); got != 1 {
			t.Fatalf("expected 1 user message after silent retry, transcript has %d", got)
		}
		if m.transcript.Len() != 2 {
			t.Errorf("expected the prompt plus a fresh placeholder, got %d messages", m.transcript.Len())
		}
		if m.user.UserKey != "guest_fresh" {
			t.Errorf("session not swapped, still %q", m.user.UserKey)
		}
		if !m.retried {
			t.Error("retry guard not set")
		}
	})

	t.Run("the retry happens at most once per prompt", func(t *testing.T) {
		provisions := 0
		gateway := &th.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				provisions++
				return &models.User{UserKey: "guest_fresh", IsGuest: true}, nil
			},
		}
		m := newChatModel(t, gateway)
		m.send("recommend an RPG")

		cause := &services.APIError{Status: 404, Message: "user_not_found"}
		_, cmd := m.applyStreamClosed(streamClosedMsg{targetID: m.targetID, err: cause})
		m.Update(cmd())

		// The fresh key is rejected as well.
		_, cmd = m.applyStreamClosed(streamClosedMsg{targetID: m.targetID, err: cause})
		if raw := cmd(); raw != nil {
			if _, ok := raw.(notifyMsg); !ok {
				t.Fatalf("expected a notice, got %T", raw)
			}
		}
		if provisions != 1 {
			t.Errorf("expected a single re-provision, got %d", provisions)
		}
		if got := userMessages(m); got != 1 {
			t.Errorf("expected 1 user message, transcript has %d", got)
		}
	})
}
