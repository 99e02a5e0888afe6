package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive chat and catalog browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.gateway == nil {
		return fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	if r.session == nil {
		return fmt.Errorf("%w: session manager not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/gamescout-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.gateway, r.session, r.tracker)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
