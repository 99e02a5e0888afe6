package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/store"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	gateway := services.NewClient(services.ClientOpts{
		BaseURL:           config.API.BaseURL,
		StreamURL:         config.API.StreamURL,
		HTTPClient:        &http.Client{Timeout: config.API.Timeout()},
		UploadClient:      &http.Client{Timeout: config.API.UploadTimeout()},
		RequestsPerSecond: config.API.RequestsPerSecond,
		SignedDomains:     config.Storage.SignedDomains,
	})

	creds, err := store.Open(config.Database.Path)
	if err != nil {
		logger.Fatalf("failed to open credential store: %v", err)
	}
	defer creds.Close()
	creds.Configure(config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Gateway: gateway,
		Creds:   creds,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "gamescout",
		Usage:    "Chat with the game discovery assistant and manage its catalog",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
