package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/store"
	tu "github.com/desertthunder/gamescout/internal/testing"
	"github.com/urfave/cli/v3"
)

// newTestRunner wires a Runner against a mock gateway with a fresh credential
// store and a captured output buffer.
func newTestRunner(t *testing.T, gateway services.Gateway) (*Runner, *bytes.Buffer) {
	t.Helper()

	creds, err := store.Open(filepath.Join(t.TempDir(), "creds.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { creds.Close() })

	// Fast poll interval so upload watch tests finish quickly.
	config := shared.DefaultConfig()
	config.Upload.PollIntervalMS = 10

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Gateway: gateway,
		Creds:   creds,
		Logger:  shared.NewLogger(io.Discard),
		Output:  output,
	})
	return runner, output
}

// run executes a CLI invocation against the runner's registered commands.
func run(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	root := &cli.Command{Name: "gamescout", Commands: runner.register()}
	return root.Run(context.Background(), append([]string{"gamescout"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("builds session and tracker from gateway", func(t *testing.T) {
			runner, _ := newTestRunner(t, &tu.MockGateway{})
			if runner.session == nil {
				t.Error("expected session manager to be constructed")
			}
			if runner.tracker == nil {
				t.Error("expected upload tracker to be constructed")
			}
		})

		t.Run("without gateway leaves session nil", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.session != nil || runner.tracker != nil {
				t.Error("expected no session or tracker without a gateway")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"n": 1}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if output.String() != "{\"n\":1}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("pretty", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"n": 1}, true); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if !strings.Contains(output.String(), "  \"n\": 1") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})

		t.Run("unmarshalable value errors", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected marshal error")
			}
		})

		t.Run("write failure errors", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON("x", false); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writePlain("a %d", 1)
		runner.writePlainln("b %d", 2)
		if output.String() != "a 1\nb 2\n" {
			t.Errorf("unexpected output %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("requireSession", func(t *testing.T) {
		t.Run("without a session manager", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if _, err := runner.requireSession(context.Background()); err == nil {
				t.Error("expected error without session manager")
			}
		})

		t.Run("provisions a guest", func(t *testing.T) {
			runner, _ := newTestRunner(t, &tu.MockGateway{})
			key, err := runner.requireSession(context.Background())
			if err != nil {
				t.Fatalf("requireSession failed: %v", err)
			}
			if key != "mock-guest" {
				t.Errorf("unexpected key %q", key)
			}
		})
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("whoami shows the guest session", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.MockGateway{})

		if err := run(t, runner, "auth", "whoami"); err != nil {
			t.Fatalf("whoami failed: %v", err)
		}
		if !strings.Contains(output.String(), "User key: mock-guest") {
			t.Errorf("missing user key: %q", output.String())
		}
		if !strings.Contains(output.String(), "Type: guest") {
			t.Errorf("missing session type: %q", output.String())
		}
	})

	t.Run("whoami json", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.MockGateway{})

		if err := run(t, runner, "auth", "whoami", "--json"); err != nil {
			t.Fatalf("whoami failed: %v", err)
		}
		var user models.User
		if err := json.Unmarshal(output.Bytes(), &user); err != nil {
			t.Fatalf("output not valid JSON: %v", err)
		}
		if user.UserKey != "mock-guest" {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("login stores the account session", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.MockGateway{})

		err := run(t, runner, "auth", "login", "--email", "a@b.test", "--password", "hunter2")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Logged in as a@b.test") {
			t.Errorf("missing confirmation: %q", output.String())
		}
	})

	t.Run("login failure wraps ErrAuthFailed", func(t *testing.T) {
		gateway := &tu.MockGateway{
			LoginFunc: func(ctx context.Context, email, password string) (*models.User, error) {
				return nil, &services.APIError{Status: 401, Message: "invalid credentials"}
			},
		}
		runner, _ := newTestRunner(t, gateway)

		err := run(t, runner, "auth", "login", "--email", "a@b.test", "--password", "wrong")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.MockGateway{})
		run(t, runner, "auth", "whoami")
		output.Reset()

		if err := run(t, runner, "auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Logged out") {
			t.Errorf("missing confirmation: %q", output.String())
		}
	})
}

func TestChatCommands(t *testing.T) {
	t.Run("ask requires a prompt", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.MockGateway{})
		err := run(t, runner, "chat", "ask")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("ask streams content and games", func(t *testing.T) {
		gateway := &tu.MockGateway{
			SendStreamFunc: func(ctx context.Context, text, userKey string, onChunk func(services.Chunk) error) error {
				for _, chunk := range []services.Chunk{
					{Type: services.ChunkStatus, Status: models.StatusAnalyzing},
					{Type: services.ChunkContent, Content: "Try "},
					{Type: services.ChunkContent, Content: "Starfall."},
					{Type: services.ChunkGames, Games: []models.Game{{ID: 1, Name: "Starfall", Category: "RPG"}}},
					{Type: services.ChunkDone},
				} {
					if err := onChunk(chunk); err != nil {
						return err
					}
				}
				return nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "chat", "ask", "any rpgs?"); err != nil {
			t.Fatalf("ask failed: %v", err)
		}
		if !strings.Contains(output.String(), "Try Starfall.\n") {
			t.Errorf("content fragments not joined: %q", output.String())
		}
		if !strings.Contains(output.String(), "▸ Starfall") {
			t.Errorf("missing recommendation card: %q", output.String())
		}
	})

	t.Run("ask retries once after session recovery", func(t *testing.T) {
		keys := []string{}
		gateway := &tu.MockGateway{
			CreateGuestFunc: func(ctx context.Context) (*models.User, error) {
				return &models.User{UserKey: "guest_fresh", IsGuest: true}, nil
			},
			SendStreamFunc: func(ctx context.Context, text, userKey string, onChunk func(services.Chunk) error) error {
				keys = append(keys, userKey)
				if len(keys) == 1 {
					return &services.APIError{Status: 404, Message: "user_not_found"}
				}
				onChunk(services.Chunk{Type: services.ChunkContent, Content: "ok"})
				onChunk(services.Chunk{Type: services.ChunkDone})
				return nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "chat", "ask", "hi"); err != nil {
			t.Fatalf("ask failed after recovery: %v", err)
		}
		if len(keys) != 2 || keys[1] != "guest_fresh" {
			t.Errorf("expected one retry with the fresh key, got %v", keys)
		}
		if !strings.Contains(output.String(), "ok") {
			t.Errorf("retried reply missing: %q", output.String())
		}
	})

	t.Run("ask surfaces assistant errors", func(t *testing.T) {
		gateway := &tu.MockGateway{
			SendStreamFunc: func(ctx context.Context, text, userKey string, onChunk func(services.Chunk) error) error {
				onChunk(services.Chunk{Type: services.ChunkContent, Content: "partial"})
				onChunk(services.Chunk{Type: services.ChunkError, Err: "model overloaded"})
				return nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		err := run(t, runner, "chat", "ask", "hi")
		if err == nil || !strings.Contains(err.Error(), "model overloaded") {
			t.Errorf("expected assistant error, got %v", err)
		}
		if !strings.Contains(output.String(), "partial") {
			t.Errorf("partial content dropped: %q", output.String())
		}
	})

	t.Run("ask no-stream prints the full reply", func(t *testing.T) {
		gateway := &tu.MockGateway{
			SendMessageFunc: func(ctx context.Context, text, userKey string) (*services.ChatReply, error) {
				return &services.ChatReply{
					Response: "Two picks for you.",
					Games:    []models.Game{{ID: 1, Name: "Starfall"}},
				}, nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "chat", "ask", "hi", "--no-stream"); err != nil {
			t.Fatalf("ask failed: %v", err)
		}
		if !strings.Contains(output.String(), "Two picks for you.") {
			t.Errorf("missing reply: %q", output.String())
		}
	})

	t.Run("history labels both speakers", func(t *testing.T) {
		gateway := &tu.MockGateway{
			ChatHistoryFunc: func(ctx context.Context, userKey string) ([]services.HistoryEntry, error) {
				return []services.HistoryEntry{
					{Role: string(models.RoleUser), Content: "any rpgs?"},
					{Role: string(models.RoleAssistant), Content: "Try Starfall."},
				}, nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "chat", "history"); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(output.String(), "[you] any rpgs?") {
			t.Errorf("missing user line: %q", output.String())
		}
		if !strings.Contains(output.String(), "[scout] Try Starfall.") {
			t.Errorf("missing assistant line: %q", output.String())
		}
	})

	t.Run("clear confirms", func(t *testing.T) {
		cleared := ""
		gateway := &tu.MockGateway{
			ClearHistoryFunc: func(ctx context.Context, userKey string) error {
				cleared = userKey
				return nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "chat", "clear"); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if cleared != "mock-guest" {
			t.Errorf("cleared wrong key %q", cleared)
		}
		if !strings.Contains(output.String(), "✓ History cleared") {
			t.Errorf("missing confirmation: %q", output.String())
		}
	})
}

func TestGamesCommands(t *testing.T) {
	catalog := []models.Game{
		{ID: 1, Name: "星落", NameEN: "Starfall", FileSize: 3 * 1024 * 1024},
		{ID: 2, Name: "Runeblade", StorageType: models.StorageNetdisk, NetdiskType: "baidu"},
	}

	t.Run("list prints the catalog", func(t *testing.T) {
		gateway := &tu.MockGateway{
			GamesFunc: func(ctx context.Context) ([]models.Game, error) { return catalog, nil },
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "games", "list"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if !strings.Contains(output.String(), "Game Catalog (2)") {
			t.Errorf("missing header: %q", output.String())
		}
		if !strings.Contains(output.String(), "星落 (3.0 MB)") {
			t.Errorf("missing size row: %q", output.String())
		}
	})

	t.Run("list json", func(t *testing.T) {
		gateway := &tu.MockGateway{
			GamesFunc: func(ctx context.Context) ([]models.Game, error) { return catalog, nil },
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "games", "list", "--json"); err != nil {
			t.Fatalf("list failed: %v", err)
		}
		var games []models.Game
		if err := json.Unmarshal(output.Bytes(), &games); err != nil {
			t.Fatalf("output not valid JSON: %v", err)
		}
		if len(games) != 2 {
			t.Errorf("unexpected games %+v", games)
		}
	})

	t.Run("search requires a query", func(t *testing.T) {
		runner, _ := newTestRunner(t, &tu.MockGateway{})
		err := run(t, runner, "games", "search")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("search with no matches", func(t *testing.T) {
		runner, output := newTestRunner(t, &tu.MockGateway{})

		if err := run(t, runner, "games", "search", "obscure"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(output.String(), `No games matched "obscure".`) {
			t.Errorf("missing empty message: %q", output.String())
		}
	})

	t.Run("show renders netdisk source", func(t *testing.T) {
		gateway := &tu.MockGateway{
			GameFunc: func(ctx context.Context, id int) (*models.Game, error) {
				return &catalog[1], nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "games", "show", "--id", "2"); err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(output.String(), "Source: Baidu Netdisk") {
			t.Errorf("missing netdisk source: %q", output.String())
		}
	})

	t.Run("add uploads cover art and creates the record", func(t *testing.T) {
		cover := filepath.Join(t.TempDir(), "cover.png")
		if err := os.WriteFile(cover, []byte("png"), 0o644); err != nil {
			t.Fatalf("failed to write cover: %v", err)
		}

		var created models.Game
		gateway := &tu.MockGateway{
			UploadImageFunc: func(ctx context.Context, filePath string) (string, error) {
				if filePath != cover {
					t.Errorf("wrong cover path %q", filePath)
				}
				return "http://storage.local/images/cover.png", nil
			},
			CreateGameFunc: func(ctx context.Context, game models.Game) (*models.Game, error) {
				created = game
				game.ID = 9
				return &game, nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		err := run(t, runner, "games", "add",
			"--name", "Starfall", "--category", "RPG", "--tag", "rpg", "--tag", "open-world",
			"--cover", cover, "--netdisk-url", "https://pan.baidu.com/s/xyz", "--provider", "baidu")
		if err != nil {
			t.Fatalf("add failed: %v", err)
		}

		if created.Name != "Starfall" || created.Category != "RPG" {
			t.Errorf("metadata not forwarded: %+v", created)
		}
		if created.CoverImageURL != "http://storage.local/images/cover.png" {
			t.Errorf("cover not attached: %+v", created)
		}
		if created.StorageType != models.StorageNetdisk || created.NetdiskType != "baidu" {
			t.Errorf("netdisk link not recorded: %+v", created)
		}
		if len(created.Tags) != 2 {
			t.Errorf("tags not forwarded: %v", created.Tags)
		}
		if !strings.Contains(output.String(), "✓ Added game 9 (Starfall)") {
			t.Errorf("missing confirmation: %q", output.String())
		}
	})

	t.Run("update overlays flags onto the fetched record", func(t *testing.T) {
		var updated models.Game
		gateway := &tu.MockGateway{
			GameFunc: func(ctx context.Context, id int) (*models.Game, error) {
				return &models.Game{ID: id, Name: "Starfall", Category: "RPG"}, nil
			},
			UpdateGameFunc: func(ctx context.Context, game models.Game) (*models.Game, error) {
				updated = game
				return &game, nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "games", "update", "--id", "3", "--category", "Visual Novel"); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		if updated.ID != 3 || updated.Category != "Visual Novel" {
			t.Errorf("flag not applied: %+v", updated)
		}
		if updated.Name != "Starfall" {
			t.Errorf("unrelated field clobbered: %+v", updated)
		}
		if !strings.Contains(output.String(), "✓ Updated game 3") {
			t.Errorf("missing confirmation: %q", output.String())
		}
	})

	t.Run("delete confirms with the id", func(t *testing.T) {
		deleted := 0
		gateway := &tu.MockGateway{
			DeleteGameFunc: func(ctx context.Context, id int) error {
				deleted = id
				return nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "games", "delete", "--id", "7"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if deleted != 7 {
			t.Errorf("deleted wrong id %d", deleted)
		}
		if !strings.Contains(output.String(), "✓ Deleted game 7") {
			t.Errorf("missing confirmation: %q", output.String())
		}
	})

	t.Run("export writes the requested formats", func(t *testing.T) {
		gateway := &tu.MockGateway{
			GamesFunc: func(ctx context.Context) ([]models.Game, error) { return catalog, nil },
		}
		runner, output := newTestRunner(t, gateway)
		dir := filepath.Join(t.TempDir(), "export")

		err := run(t, runner, "games", "export", "--format", "json", "--format", "csv", "--output", dir)
		if err != nil {
			t.Fatalf("export failed: %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "catalog.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "catalog.csv"))
		if !strings.Contains(output.String(), "✓ Exported 2 games") {
			t.Errorf("missing summary: %q", output.String())
		}
	})
}

func TestUploadCommands(t *testing.T) {
	t.Run("file submits and polls to completion", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "game.zip")
		if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		var meta models.GameUpload
		gateway := &tu.MockGateway{
			UploadFileFunc: func(ctx context.Context, filePath string, m models.GameUpload, uploadID string, onProgress func(percent int)) error {
				meta = m
				if onProgress != nil {
					onProgress(100)
				}
				return nil
			},
			UploadProgressFunc: func(ctx context.Context, uploadID string) (*models.UploadProgress, error) {
				return &models.UploadProgress{Status: models.UploadCompleted, Percent: 100}, nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		err := run(t, runner, "upload", "file", path, "--name", "Starfall", "--category", "RPG")
		if err != nil {
			t.Fatalf("upload failed: %v", err)
		}
		if meta.Name != "Starfall" || meta.Category != "RPG" {
			t.Errorf("metadata not forwarded: %+v", meta)
		}
		if meta.FileSize != int64(len("binary")) {
			t.Errorf("file size not stamped: %d", meta.FileSize)
		}
		if !strings.Contains(output.String(), "✓ Upload complete") {
			t.Errorf("missing completion: %q", output.String())
		}
	})

	t.Run("file reports storage failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "game.zip")
		os.WriteFile(path, []byte("binary"), 0o644)

		gateway := &tu.MockGateway{
			UploadProgressFunc: func(ctx context.Context, uploadID string) (*models.UploadProgress, error) {
				return &models.UploadProgress{Status: models.UploadError, Error: "disk full"}, nil
			},
		}
		runner, _ := newTestRunner(t, gateway)

		err := run(t, runner, "upload", "file", path, "--name", "Starfall")
		if !errors.Is(err, shared.ErrUploadFailed) {
			t.Errorf("expected ErrUploadFailed, got %v", err)
		}
	})

	t.Run("netdisk forwards the share link", func(t *testing.T) {
		var meta models.GameUpload
		gateway := &tu.MockGateway{
			UploadNetdiskFunc: func(ctx context.Context, m models.GameUpload, uploadID string) error {
				meta = m
				return nil
			},
			UploadProgressFunc: func(ctx context.Context, uploadID string) (*models.UploadProgress, error) {
				return &models.UploadProgress{Status: models.UploadCompleted, Percent: 100}, nil
			},
		}
		runner, _ := newTestRunner(t, gateway)

		err := run(t, runner, "upload", "netdisk",
			"--name", "Starfall", "--url", "https://pan.baidu.com/s/xyz", "--provider", "baidu")
		if err != nil {
			t.Fatalf("netdisk upload failed: %v", err)
		}
		if meta.NetdiskURL != "https://pan.baidu.com/s/xyz" || meta.NetdiskType != "baidu" {
			t.Errorf("link not forwarded: %+v", meta)
		}
	})

	t.Run("watch errors when tracking stops early", func(t *testing.T) {
		// Default mock progress never reaches a terminal state.
		runner, _ := newTestRunner(t, &tu.MockGateway{})

		go func() {
			time.Sleep(30 * time.Millisecond)
			runner.tracker.Stop()
		}()

		err := runner.watchUpload(context.Background(), "upload_zzz")
		if !errors.Is(err, shared.ErrUploadFailed) {
			t.Errorf("expected ErrUploadFailed for cancelled tracking, got %v", err)
		}
	})

	t.Run("status renders a single poll", func(t *testing.T) {
		gateway := &tu.MockGateway{
			UploadProgressFunc: func(ctx context.Context, uploadID string) (*models.UploadProgress, error) {
				return &models.UploadProgress{Status: models.UploadUploading, Percent: 40}, nil
			},
		}
		runner, output := newTestRunner(t, gateway)

		if err := run(t, runner, "upload", "status", "upload_123"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(output.String(), "40") {
			t.Errorf("missing percent: %q", output.String())
		}
	})
}
