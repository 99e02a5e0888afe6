// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
)

// MockGateway is a configurable test double for [services.Gateway]. Zero
// values return empty results; set a func field to script a call.
type MockGateway struct {
	CreateGuestFunc    func(ctx context.Context) (*models.User, error)
	LoginFunc          func(ctx context.Context, email, password string) (*models.User, error)
	RegisterFunc       func(ctx context.Context, email, password string) (*models.User, error)
	VerifyFunc         func(ctx context.Context, userKey string) (*models.User, error)
	SendMessageFunc    func(ctx context.Context, text, userKey string) (*services.ChatReply, error)
	SendStreamFunc     func(ctx context.Context, text, userKey string, onChunk func(services.Chunk) error) error
	ChatHistoryFunc    func(ctx context.Context, userKey string) ([]services.HistoryEntry, error)
	GamesFunc          func(ctx context.Context) ([]models.Game, error)
	GameFunc           func(ctx context.Context, id int) (*models.Game, error)
	SearchGamesFunc    func(ctx context.Context, query string) ([]models.Game, error)
	CreateGameFunc     func(ctx context.Context, game models.Game) (*models.Game, error)
	UpdateGameFunc     func(ctx context.Context, game models.Game) (*models.Game, error)
	DeleteGameFunc     func(ctx context.Context, id int) error
	UploadFileFunc     func(ctx context.Context, filePath string, meta models.GameUpload, uploadID string, onProgress func(percent int)) error
	UploadNetdiskFunc  func(ctx context.Context, meta models.GameUpload, uploadID string) error
	UploadImageFunc    func(ctx context.Context, filePath string) (string, error)
	UploadProgressFunc func(ctx context.Context, uploadID string) (*models.UploadProgress, error)
	SignedURLFunc      func(ctx context.Context, rawURL string) (string, error)
	ClearHistoryFunc   func(ctx context.Context, userKey string) error
}

func (m *MockGateway) CreateGuest(ctx context.Context) (*models.User, error) {
	if m.CreateGuestFunc != nil {
		return m.CreateGuestFunc(ctx)
	}
	return &models.User{UserKey: "mock-guest", IsGuest: true}, nil
}

func (m *MockGateway) Login(ctx context.Context, email, password string) (*models.User, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return &models.User{UserKey: "mock-user", Email: email}, nil
}

func (m *MockGateway) Register(ctx context.Context, email, password string) (*models.User, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password)
	}
	return &models.User{UserKey: "mock-user", Email: email}, nil
}

func (m *MockGateway) Verify(ctx context.Context, userKey string) (*models.User, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, userKey)
	}
	return &models.User{UserKey: userKey}, nil
}

func (m *MockGateway) SendMessage(ctx context.Context, text, userKey string) (*services.ChatReply, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, text, userKey)
	}
	return &services.ChatReply{}, nil
}

func (m *MockGateway) SendStream(ctx context.Context, text, userKey string, onChunk func(services.Chunk) error) error {
	if m.SendStreamFunc != nil {
		return m.SendStreamFunc(ctx, text, userKey, onChunk)
	}
	return nil
}

func (m *MockGateway) ChatHistory(ctx context.Context, userKey string) ([]services.HistoryEntry, error) {
	if m.ChatHistoryFunc != nil {
		return m.ChatHistoryFunc(ctx, userKey)
	}
	return []services.HistoryEntry{}, nil
}

func (m *MockGateway) ClearChatHistory(ctx context.Context, userKey string) error {
	if m.ClearHistoryFunc != nil {
		return m.ClearHistoryFunc(ctx, userKey)
	}
	return nil
}

func (m *MockGateway) Games(ctx context.Context) ([]models.Game, error) {
	if m.GamesFunc != nil {
		return m.GamesFunc(ctx)
	}
	return []models.Game{}, nil
}

func (m *MockGateway) Game(ctx context.Context, id int) (*models.Game, error) {
	if m.GameFunc != nil {
		return m.GameFunc(ctx, id)
	}
	return &models.Game{ID: id}, nil
}

func (m *MockGateway) SearchGames(ctx context.Context, query string) ([]models.Game, error) {
	if m.SearchGamesFunc != nil {
		return m.SearchGamesFunc(ctx, query)
	}
	return []models.Game{}, nil
}

func (m *MockGateway) CreateGame(ctx context.Context, game models.Game) (*models.Game, error) {
	if m.CreateGameFunc != nil {
		return m.CreateGameFunc(ctx, game)
	}
	return &game, nil
}

func (m *MockGateway) UpdateGame(ctx context.Context, game models.Game) (*models.Game, error) {
	if m.UpdateGameFunc != nil {
		return m.UpdateGameFunc(ctx, game)
	}
	return &game, nil
}

func (m *MockGateway) DeleteGame(ctx context.Context, id int) error {
	if m.DeleteGameFunc != nil {
		return m.DeleteGameFunc(ctx, id)
	}
	return nil
}

func (m *MockGateway) UploadFile(ctx context.Context, filePath string, meta models.GameUpload, uploadID string, onProgress func(percent int)) error {
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(ctx, filePath, meta, uploadID, onProgress)
	}
	return nil
}

func (m *MockGateway) UploadNetdisk(ctx context.Context, meta models.GameUpload, uploadID string) error {
	if m.UploadNetdiskFunc != nil {
		return m.UploadNetdiskFunc(ctx, meta, uploadID)
	}
	return nil
}

func (m *MockGateway) UploadImage(ctx context.Context, filePath string) (string, error) {
	if m.UploadImageFunc != nil {
		return m.UploadImageFunc(ctx, filePath)
	}
	return "http://storage.local/images/mock.png", nil
}

func (m *MockGateway) UploadProgress(ctx context.Context, uploadID string) (*models.UploadProgress, error) {
	if m.UploadProgressFunc != nil {
		return m.UploadProgressFunc(ctx, uploadID)
	}
	return nil, nil
}

func (m *MockGateway) SignedURL(ctx context.Context, rawURL string) (string, error) {
	if m.SignedURLFunc != nil {
		return m.SignedURLFunc(ctx, rawURL)
	}
	return rawURL, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
