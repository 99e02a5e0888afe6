package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/tasks"
	"github.com/urfave/cli/v3"
)

// GamesList prints the full catalog.
func (r *Runner) GamesList(ctx context.Context, cmd *cli.Command) error {
	games, err := r.gateway.Games(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(games, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Game Catalog (%d)", len(games)))
	for _, game := range games {
		r.printGameRow(game)
	}
	return nil
}

// GamesSearch queries the catalog.
func (r *Runner) GamesSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	games, err := r.gateway.SearchGames(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(games, true)
	}

	if len(games) == 0 {
		return r.writePlain("No games matched %q.\n", query)
	}
	for _, game := range games {
		r.printGameRow(game)
	}
	return nil
}

// GamesShow prints one catalog entry, optionally opening its download link.
func (r *Runner) GamesShow(ctx context.Context, cmd *cli.Command) error {
	game, err := r.gateway.Game(ctx, cmd.Int("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(game, true)
	}

	title := game.Name
	if game.NameEN != "" && game.NameEN != game.Name {
		title = fmt.Sprintf("%s (%s)", game.Name, game.NameEN)
	}
	r.writePlainHeader(title)
	if game.Description != "" {
		r.writePlain("%s\n\n", game.Description)
	}
	if game.Category != "" {
		r.writePlain("Category: %s\n", game.Category)
	}
	if game.StorageType == models.StorageNetdisk {
		r.writePlain("Source: %s\n", models.NetdiskName(game.NetdiskType))
	} else if game.FileSize > 0 {
		r.writePlain("Size: %s\n", shared.FormatBytes(game.FileSize))
	}

	if !cmd.Bool("open") {
		return nil
	}
	if game.GameFileURL == "" {
		return fmt.Errorf("%w: game has no download", shared.ErrGameNotFound)
	}

	url := game.GameFileURL
	if game.StorageType != models.StorageNetdisk {
		if url, err = r.gateway.SignedURL(ctx, url); err != nil {
			return fmt.Errorf("failed to resolve download URL: %w", err)
		}
	}
	r.logger.Info("opening download link", "game", game.Name)
	return shared.OpenBrowser(url)
}

// GamesExport dumps the catalog to local files with a progress readout.
func (r *Runner) GamesExport(ctx context.Context, cmd *cli.Command) error {
	formats := []tasks.ExportFormat{}
	for _, f := range cmd.StringSlice("format") {
		formats = append(formats, tasks.ExportFormat(f))
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	exporter := tasks.NewCatalogExporter(r.gateway)
	result, err := exporter.Run(ctx, progress, tasks.ExportOpts{
		Formats:     formats,
		OutputDir:   cmd.String("output"),
		NumWorkers:  cmd.Int("workers"),
		ResolveURLs: cmd.Bool("resolve-urls"),
	})
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d games to %s", result.Games, result.OutputDir)
	for _, file := range result.Files {
		if file.Error != nil {
			r.writePlain("  ✗ %s: %v\n", file.Format, file.Error)
			continue
		}
		r.writePlain("  %s\n", file.Path)
	}
	return nil
}

// GamesAdd creates a catalog record from flags, uploading cover art first
// when a local path is given.
func (r *Runner) GamesAdd(ctx context.Context, cmd *cli.Command) error {
	game := models.Game{
		Name:        cmd.String("name"),
		NameEN:      cmd.String("name-en"),
		Description: cmd.String("description"),
		Category:    cmd.String("category"),
		Tags:        cmd.StringSlice("tag"),
	}
	if link := cmd.String("netdisk-url"); link != "" {
		game.StorageType = models.StorageNetdisk
		game.GameFileURL = link
		game.NetdiskType = cmd.String("provider")
	}
	if cover := cmd.String("cover"); cover != "" {
		coverURL, err := r.gateway.UploadImage(ctx, cover)
		if err != nil {
			return fmt.Errorf("failed to upload cover image: %w", err)
		}
		game.CoverImageURL = coverURL
	}

	created, err := r.gateway.CreateGame(ctx, game)
	if err != nil {
		return err
	}
	r.logger.Info("created game", "id", created.ID)
	return r.writePlain("✓ Added game %d (%s)\n", created.ID, created.Name)
}

// GamesUpdate overlays the provided flags onto an existing record.
func (r *Runner) GamesUpdate(ctx context.Context, cmd *cli.Command) error {
	game, err := r.gateway.Game(ctx, cmd.Int("id"))
	if err != nil {
		return err
	}

	if v := cmd.String("name"); v != "" {
		game.Name = v
	}
	if v := cmd.String("name-en"); v != "" {
		game.NameEN = v
	}
	if v := cmd.String("description"); v != "" {
		game.Description = v
	}
	if v := cmd.String("category"); v != "" {
		game.Category = v
	}
	if tags := cmd.StringSlice("tag"); len(tags) > 0 {
		game.Tags = tags
	}
	if cover := cmd.String("cover"); cover != "" {
		coverURL, err := r.gateway.UploadImage(ctx, cover)
		if err != nil {
			return fmt.Errorf("failed to upload cover image: %w", err)
		}
		game.CoverImageURL = coverURL
	}

	updated, err := r.gateway.UpdateGame(ctx, *game)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated game %d\n", updated.ID)
}

// GamesDelete removes a catalog entry.
func (r *Runner) GamesDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Int("id")
	if err := r.gateway.DeleteGame(ctx, id); err != nil {
		return err
	}
	r.logger.Info("deleted game", "id", id)
	return r.writePlain("✓ Deleted game %d\n", id)
}

func (r *Runner) printGameRow(game models.Game) {
	size := ""
	if game.FileSize > 0 {
		size = fmt.Sprintf(" (%s)", shared.FormatBytes(game.FileSize))
	}
	r.writePlain("%4d  %s%s\n", game.ID, game.Name, size)
}
