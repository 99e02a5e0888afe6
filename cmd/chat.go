package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/urfave/cli/v3"
)

// ChatAsk sends a prompt and renders the reply, streaming by default.
func (r *Runner) ChatAsk(ctx context.Context, cmd *cli.Command) error {
	prompt := cmd.StringArg("prompt")
	if prompt == "" {
		return fmt.Errorf("%w: prompt", shared.ErrMissingArgument)
	}

	userKey, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("no-stream") {
		return r.askComplete(ctx, prompt, userKey, cmd.Bool("json"))
	}
	return r.askStreaming(ctx, prompt, userKey, false)
}

// askComplete waits for the full reply on the plain chat endpoint.
func (r *Runner) askComplete(ctx context.Context, prompt, userKey string, asJSON bool) error {
	reply, err := r.gateway.SendMessage(ctx, prompt, userKey)
	if err != nil {
		if recovered, rerr := r.recoverSession(ctx, err); recovered == "" {
			return rerr
		} else {
			reply, err = r.gateway.SendMessage(ctx, prompt, recovered)
			if err != nil {
				return err
			}
		}
	}

	if asJSON {
		return r.writeJSON(reply, true)
	}

	r.writePlain("%s\n", reply.Response)
	for _, game := range reply.Games {
		r.printGameCard(game)
	}
	return nil
}

// askStreaming renders chunks as they arrive. Content fragments are written
// without buffering so the reply appears incrementally, matching the
// assistant's pacing.
func (r *Runner) askStreaming(ctx context.Context, prompt, userKey string, retried bool) error {
	var (
		sawContent bool
		games      []models.Game
		streamErr  string
	)

	err := r.gateway.SendStream(ctx, prompt, userKey, func(chunk services.Chunk) error {
		switch chunk.Type {
		case services.ChunkStatus:
			r.logger.Debug("assistant status", "status", chunk.Status)
		case services.ChunkContent:
			sawContent = true
			r.writePlain("%s", chunk.Content)
		case services.ChunkGames:
			games = chunk.Games
		case services.ChunkError:
			streamErr = chunk.Err
		}
		return nil
	})

	if err != nil {
		if services.IsUserNotFound(err) && !retried {
			freshKey, rerr := r.recoverSession(ctx, err)
			if freshKey == "" {
				return rerr
			}
			return r.askStreaming(ctx, prompt, freshKey, true)
		}
		return err
	}

	if sawContent {
		r.writePlain("\n")
	}
	for _, game := range games {
		r.printGameCard(game)
	}
	if streamErr != "" {
		return fmt.Errorf("assistant error: %s", streamErr)
	}
	return nil
}

// recoverSession re-provisions a guest when the server forgot our key.
// Returns the fresh user key, or "" with the original error.
func (r *Runner) recoverSession(ctx context.Context, cause error) (string, error) {
	user, recovered, err := r.session.Recover(ctx, cause)
	if !recovered {
		return "", err
	}
	return user.UserKey, nil
}

// ChatHistory prints the stored transcript.
func (r *Runner) ChatHistory(ctx context.Context, cmd *cli.Command) error {
	userKey, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	entries, err := r.gateway.ChatHistory(ctx, userKey)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	if len(entries) == 0 {
		return r.writePlain("No messages yet.\n")
	}

	for _, entry := range entries {
		speaker := "you"
		if entry.Role == string(models.RoleAssistant) {
			speaker = "scout"
		}
		r.writePlain("[%s] %s\n", speaker, entry.Content)
		for _, game := range entry.Games {
			r.printGameCard(game)
		}
	}
	return nil
}

// ChatClear deletes the stored transcript.
func (r *Runner) ChatClear(ctx context.Context, cmd *cli.Command) error {
	userKey, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	if err := r.gateway.ClearChatHistory(ctx, userKey); err != nil {
		return err
	}
	return r.writePlain("✓ History cleared\n")
}

// printGameCard renders one recommendation in the terminal.
func (r *Runner) printGameCard(game models.Game) {
	r.writePlainln("  ▸ %s", game.Name)
	if game.Category != "" {
		r.writePlain("    Category: %s\n", game.Category)
	}
	if game.StorageType == models.StorageNetdisk {
		r.writePlain("    Source: %s\n", models.NetdiskName(game.NetdiskType))
	} else if game.FileSize > 0 {
		r.writePlain("    Size: %s\n", shared.FormatBytes(game.FileSize))
	}
}
