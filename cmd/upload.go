package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/tasks"
	"github.com/urfave/cli/v3"
)

// UploadFile submits a game binary and watches server-side progress until a
// terminal state.
func (r *Runner) UploadFile(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.StringArg("path")
	if filePath == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	meta := uploadMeta(cmd)
	meta.FileSize = info.Size()
	meta.CoverImage = cmd.String("cover")

	uploadID := shared.UploadID()
	r.logger.Info("uploading game file", "path", filePath, "upload_id", uploadID)

	lastPercent := -1
	err = r.gateway.UploadFile(ctx, filePath, meta, uploadID, func(percent int) {
		if percent != lastPercent {
			lastPercent = percent
			r.writePlain("\rSending... %d%%", percent)
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}
	r.writePlain("\rSent. Waiting for the server to store the file...\n")

	return r.watchUpload(ctx, uploadID)
}

// UploadNetdisk submits a cloud-drive share link. No binary travels, so the
// server usually reports completion on the first poll.
func (r *Runner) UploadNetdisk(ctx context.Context, cmd *cli.Command) error {
	meta := uploadMeta(cmd)
	meta.NetdiskURL = cmd.String("url")
	meta.NetdiskType = cmd.String("provider")

	uploadID := shared.UploadID()
	r.logger.Info("submitting netdisk link", "provider", meta.NetdiskType, "upload_id", uploadID)

	if err := r.gateway.UploadNetdisk(ctx, meta, uploadID); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}

	return r.watchUpload(ctx, uploadID)
}

// UploadStatus polls the progress endpoint once, or until terminal with
// --watch.
func (r *Runner) UploadStatus(ctx context.Context, cmd *cli.Command) error {
	uploadID := cmd.StringArg("id")
	if uploadID == "" {
		return fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}

	if cmd.Bool("watch") {
		return r.watchUpload(ctx, uploadID)
	}

	progress, err := r.gateway.UploadProgress(ctx, uploadID)
	if err != nil {
		return err
	}
	if progress == nil {
		return r.writePlain("No progress reported yet for %s.\n", uploadID)
	}

	switch progress.Status {
	case models.UploadError:
		return r.writePlain("✗ Failed: %s\n", progress.Error)
	case models.UploadCompleted:
		return r.writePlain("✓ Completed\n")
	default:
		return r.writePlain("Uploading: %d%%\n", progress.Percent)
	}
}

// watchUpload drives the tracker to a terminal state, rendering each event.
func (r *Runner) watchUpload(ctx context.Context, uploadID string) error {
	updates := r.tracker.Start(ctx, uploadID)
	defer r.tracker.Stop()

	for update := range updates {
		switch {
		case update.Terminal && update.State == tasks.UploadDone:
			r.writePlain("\r✓ Upload complete (%s)\n", uploadID)
			return nil
		case update.Terminal && update.State == tasks.UploadFailed:
			r.writePlain("\r")
			return fmt.Errorf("%w: %s", shared.ErrUploadFailed, update.Message)
		default:
			r.writePlain("\rStoring... %d%%", update.Percent)
		}
	}

	// The channel closed without a terminal event, so the outcome is unknown.
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: tracking stopped before %s finished", shared.ErrUploadFailed, uploadID)
}

func uploadMeta(cmd *cli.Command) models.GameUpload {
	return models.GameUpload{
		Name:        cmd.String("name"),
		NameEN:      cmd.String("name-en"),
		Category:    cmd.String("category"),
		Description: cmd.String("description"),
	}
}
