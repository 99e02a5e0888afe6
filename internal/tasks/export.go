// Catalog export pipeline: fetch, resolve asset URLs, encode, write.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/gamescout/internal/formatter"
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/shared"
)

// ExportFormat identifies a catalog export encoding.
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatCSV      ExportFormat = "csv"
	FormatMarkdown ExportFormat = "markdown"
	FormatText     ExportFormat = "txt"
)

// ExportOpts configures a catalog export.
type ExportOpts struct {
	Formats     []ExportFormat // encodings to write, default JSON
	OutputDir   string         // default: catalog_export_{epoch}
	NumWorkers  int            // workers resolving signed asset URLs, default 4
	ResolveURLs bool
}

// ExportFileResult records one written file.
type ExportFileResult struct {
	Format ExportFormat
	Path   string
	Error  error
}

// ExportResult summarizes a catalog export run.
type ExportResult struct {
	Games     int
	OutputDir string
	Files     []ExportFileResult
}

// CatalogExporter dumps the game catalog to local files.
type CatalogExporter struct {
	gateway services.Gateway
}

// NewCatalogExporter creates an exporter backed by the given gateway.
func NewCatalogExporter(gateway services.Gateway) *CatalogExporter {
	return &CatalogExporter{gateway: gateway}
}

// Run fetches the full catalog, optionally resolves signed asset URLs with a
// small worker pool, and writes one file per requested format.
func (e *CatalogExporter) Run(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.gateway == nil {
		return nil, fmt.Errorf("%w: gateway not initialized", shared.ErrServiceUnavailable)
	}

	if len(opts.Formats) == 0 {
		opts.Formats = []ExportFormat{FormatJSON}
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("catalog_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}

	sendProgress(progress, ProgressUpdate{Phase: FetchCatalog, Step: 1, Total: 1, Message: "Fetching catalog..."})

	games, err := e.gateway.Games(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch catalog: %v", shared.ErrAPIRequest, err)
	}

	if opts.ResolveURLs {
		e.resolveAssetURLs(ctx, progress, games, opts.NumWorkers)
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Games:     len(games),
		OutputDir: opts.OutputDir,
		Files:     make([]ExportFileResult, 0, len(opts.Formats)),
	}

	for i, format := range opts.Formats {
		sendProgress(progress, ProgressUpdate{
			Phase:   EncodeCatalog,
			Step:    i + 1,
			Total:   len(opts.Formats),
			Message: fmt.Sprintf("Encoding catalog as %s...", format),
		})

		data, err := encodeCatalog(games, format)
		path := filepath.Join(opts.OutputDir, fmt.Sprintf("catalog.%s", extension(format)))
		if err == nil {
			err = os.WriteFile(path, data, 0o644)
		}

		result.Files = append(result.Files, ExportFileResult{Format: format, Path: path, Error: err})
		sendProgress(progress, ProgressUpdate{
			Phase:   WriteFiles,
			Step:    i + 1,
			Total:   len(opts.Formats),
			Message: fmt.Sprintf("Wrote %s", path),
		})
	}

	return result, nil
}

// resolveAssetURLs swaps cover and file URLs for signed ones in place, using
// a bounded worker pool. Failures leave the raw URL, which still renders.
func (e *CatalogExporter) resolveAssetURLs(ctx context.Context, progress chan<- ProgressUpdate, games []models.Game, workers int) {
	jobs := make(chan int, len(games))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if signed, err := e.gateway.SignedURL(ctx, games[i].CoverImageURL); err == nil {
					games[i].CoverImageURL = signed
				}
				if signed, err := e.gateway.SignedURL(ctx, games[i].GameFileURL); err == nil {
					games[i].GameFileURL = signed
				}
			}
		}()
	}

	for i := range games {
		sendProgress(progress, ProgressUpdate{
			Phase:   ResolveAssets,
			Step:    i + 1,
			Total:   len(games),
			Message: fmt.Sprintf("[%d/%d] %s", i+1, len(games), games[i].Name),
		})
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

func encodeCatalog(games []models.Game, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(games, "", "  ")
	case FormatCSV:
		return formatter.GamesToCSV(games)
	case FormatMarkdown:
		return formatter.GamesToMarkdown(games)
	case FormatText:
		return formatter.GamesToText(games)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidInput, format)
	}
}

func extension(format ExportFormat) string {
	if format == FormatMarkdown {
		return "md"
	}
	return string(format)
}
