package tasks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/gamescout/internal/models"
	th "github.com/desertthunder/gamescout/internal/testing"
)

func catalogFixture() []models.Game {
	return []models.Game{
		{ID: 1, Name: "Starfall", Category: "RPG", CoverImageURL: "https://cdn.example.com/starfall.jpg", GameFileURL: "https://cdn.example.com/starfall.zip", FileSize: 2048},
		{ID: 2, Name: "Runeblade", Category: "Action", StorageType: models.StorageNetdisk, NetdiskType: "quark"},
	}
}

func TestCatalogExporter(t *testing.T) {
	t.Run("writes one file per format", func(t *testing.T) {
		gateway := &th.MockGateway{
			GamesFunc: func(ctx context.Context) ([]models.Game, error) {
				return catalogFixture(), nil
			},
		}

		dir := t.TempDir()
		exporter := NewCatalogExporter(gateway)
		result, err := exporter.Run(context.Background(), nil, ExportOpts{
			Formats:   []ExportFormat{FormatJSON, FormatCSV, FormatMarkdown, FormatText},
			OutputDir: dir,
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if result.Games != 2 {
			t.Errorf("expected 2 games, got %d", result.Games)
		}
		if len(result.Files) != 4 {
			t.Fatalf("expected 4 files, got %d", len(result.Files))
		}
		for _, file := range result.Files {
			if file.Error != nil {
				t.Errorf("format %s failed: %v", file.Format, file.Error)
			}
			th.AssertFileExists(t, file.Path)
		}

		data := th.MustReadFile(t, filepath.Join(dir, "catalog.json"))
		var decoded []models.Game
		if err := json.Unmarshal([]byte(data), &decoded); err != nil {
			t.Fatalf("JSON export not parseable: %v", err)
		}
		if len(decoded) != 2 || decoded[0].Name != "Starfall" {
			t.Errorf("unexpected JSON content: %+v", decoded)
		}

		md := th.MustReadFile(t, filepath.Join(dir, "catalog.md"))
		if !strings.Contains(md, "# Game Catalog") || !strings.Contains(md, "Runeblade") {
			t.Errorf("markdown export incomplete:\n%s", md)
		}
	})

	t.Run("resolves signed URLs with workers", func(t *testing.T) {
		var signedCalls int64
		gateway := &th.MockGateway{
			GamesFunc: func(ctx context.Context) ([]models.Game, error) {
				return catalogFixture(), nil
			},
			SignedURLFunc: func(ctx context.Context, rawURL string) (string, error) {
				atomic.AddInt64(&signedCalls, 1)
				return rawURL + "?signed=1", nil
			},
		}

		dir := t.TempDir()
		exporter := NewCatalogExporter(gateway)
		progress := make(chan ProgressUpdate, 100)
		_, err := exporter.Run(context.Background(), progress, ExportOpts{
			Formats:     []ExportFormat{FormatJSON},
			OutputDir:   dir,
			ResolveURLs: true,
			NumWorkers:  2,
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		// Two URL fields per game.
		if got := atomic.LoadInt64(&signedCalls); got != 4 {
			t.Errorf("expected 4 sign calls, got %d", got)
		}

		data := th.MustReadFile(t, filepath.Join(dir, "catalog.json"))
		if !strings.Contains(data, "signed=1") {
			t.Error("signed URLs not written to export")
		}
	})

	t.Run("defaults to JSON in a timestamped directory", func(t *testing.T) {
		gateway := &th.MockGateway{
			GamesFunc: func(ctx context.Context) ([]models.Game, error) {
				return catalogFixture(), nil
			},
		}

		wd := th.MustGetwd(t)
		th.MustChdir(t, t.TempDir())
		defer th.MustChdir(t, wd)

		exporter := NewCatalogExporter(gateway)
		result, err := exporter.Run(context.Background(), nil, ExportOpts{})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		defer os.RemoveAll(result.OutputDir)

		if !strings.HasPrefix(result.OutputDir, "catalog_export_") {
			t.Errorf("unexpected output dir %q", result.OutputDir)
		}
		if len(result.Files) != 1 || result.Files[0].Format != FormatJSON {
			t.Errorf("expected a single JSON file, got %+v", result.Files)
		}
	})

	t.Run("unknown format is recorded per file", func(t *testing.T) {
		gateway := &th.MockGateway{
			GamesFunc: func(ctx context.Context) ([]models.Game, error) {
				return catalogFixture(), nil
			},
		}

		exporter := NewCatalogExporter(gateway)
		result, err := exporter.Run(context.Background(), nil, ExportOpts{
			Formats:   []ExportFormat{"yaml"},
			OutputDir: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.Files[0].Error == nil {
			t.Error("expected an error for the unknown format")
		}
	})

	t.Run("progress updates are emitted", func(t *testing.T) {
		gateway := &th.MockGateway{
			GamesFunc: func(ctx context.Context) ([]models.Game, error) {
				return catalogFixture(), nil
			},
		}

		progress := make(chan ProgressUpdate, 100)
		exporter := NewCatalogExporter(gateway)
		_, err := exporter.Run(context.Background(), progress, ExportOpts{
			Formats:   []ExportFormat{FormatCSV},
			OutputDir: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		close(progress)

		phases := map[Phase]bool{}
		for update := range progress {
			phases[update.Phase] = true
		}
		for _, phase := range []Phase{FetchCatalog, EncodeCatalog, WriteFiles} {
			if !phases[phase] {
				t.Errorf("missing %s progress update", phase)
			}
		}
	})
}
