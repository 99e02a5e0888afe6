package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/store"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes a starter config.toml.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\n", path)
}

// SetupDatabase initializes the credential store schema.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if path := cmd.String("config"); path != "" {
		if loaded, err := shared.LoadConfig(path); err == nil {
			config = loaded
		}
	}

	creds, err := store.Open(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}
	defer creds.Close()
	creds.Configure(config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("credential store ready", "path", config.Database.Path)
	return r.writePlain("✓ Credential store initialized at %s\n", shared.ExpandHome(config.Database.Path))
}
