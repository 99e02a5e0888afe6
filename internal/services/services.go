// package services defines interface Gateway for the game-discovery API
//
// Auth, chat (plain and streaming), catalog, uploads, signed URLs
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
)

// Gateway is the typed client surface for the discovery API. Every call may
// fail with a transport error or a server-reported [*APIError]; callers own
// user-facing messaging.
type Gateway interface {
	// CreateGuest provisions an anonymous account and returns its profile.
	CreateGuest(ctx context.Context) (*models.User, error)

	// Login authenticates with email and password.
	Login(ctx context.Context, email, password string) (*models.User, error)

	// Register creates an account with email and password.
	Register(ctx context.Context, email, password string) (*models.User, error)

	// Verify checks that a stored user key is still known to the server.
	Verify(ctx context.Context, userKey string) (*models.User, error)

	// SendMessage sends a chat prompt and waits for the complete reply.
	SendMessage(ctx context.Context, text, userKey string) (*ChatReply, error)

	// SendStream sends a chat prompt over the streaming channel. onChunk is
	// invoked zero or more times, sequentially and in arrival order, then
	// SendStream returns. A failure before the first chunk is reported as
	// [shared.ErrStreamClosed].
	SendStream(ctx context.Context, text, userKey string, onChunk func(Chunk) error) error

	// ChatHistory retrieves the stored transcript for a user key.
	ChatHistory(ctx context.Context, userKey string) ([]HistoryEntry, error)

	// ClearChatHistory deletes the stored transcript for a user key.
	ClearChatHistory(ctx context.Context, userKey string) error

	// Games retrieves the full catalog.
	Games(ctx context.Context) ([]models.Game, error)

	// Game retrieves a single catalog record by id.
	Game(ctx context.Context, id int) (*models.Game, error)

	// SearchGames queries the catalog.
	SearchGames(ctx context.Context, query string) ([]models.Game, error)

	// CreateGame adds a catalog record (local admin).
	CreateGame(ctx context.Context, game models.Game) (*models.Game, error)

	// UpdateGame replaces a catalog record (local admin).
	UpdateGame(ctx context.Context, game models.Game) (*models.Game, error)

	// DeleteGame removes a catalog record (local admin).
	DeleteGame(ctx context.Context, id int) error

	// UploadFile submits a game binary with metadata. The call returns once
	// the server has accepted the payload; real storage progress arrives via
	// UploadProgress polling. onProgress reports local send percent.
	UploadFile(ctx context.Context, filePath string, meta models.GameUpload, uploadID string, onProgress func(percent int)) error

	// UploadNetdisk submits a cloud-drive share link with metadata.
	UploadNetdisk(ctx context.Context, meta models.GameUpload, uploadID string) error

	// UploadImage submits a standalone image and returns its hosted URL,
	// used to attach cover art to catalog records.
	UploadImage(ctx context.Context, filePath string) (string, error)

	// UploadProgress polls the progress endpoint. A not-yet-ready endpoint
	// yields (nil, nil), which callers treat as "no update".
	UploadProgress(ctx context.Context, uploadID string) (*models.UploadProgress, error)

	// SignedURL resolves an asset URL on the object-storage domain to a
	// time-limited signed URL. URLs on other domains pass through unchanged.
	SignedURL(ctx context.Context, rawURL string) (string, error)
}

// ChatReply is the non-streaming chat response.
type ChatReply struct {
	Response string        `json:"response"`
	Games    []models.Game `json:"games,omitempty"`
}

// HistoryEntry is one stored transcript row.
type HistoryEntry struct {
	Role      string        `json:"role"`
	Content   string        `json:"content"`
	CreatedAt string        `json:"created_at"`
	Games     []models.Game `json:"games,omitempty"`
}

// APIError is a server-reported error payload.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: %s (status %d)", e.Message, e.Status)
}

// Unwrap maps well-known server messages onto sentinel errors so callers can
// branch with [errors.Is].
func (e *APIError) Unwrap() error {
	switch e.Message {
	case "user_not_found":
		return shared.ErrUserNotFound
	case "game_not_found":
		return shared.ErrGameNotFound
	default:
		return nil
	}
}

// IsUserNotFound reports whether err is the server's user_not_found payload,
// which callers recover from by re-provisioning a guest session.
func IsUserNotFound(err error) bool {
	return errors.Is(err, shared.ErrUserNotFound)
}
