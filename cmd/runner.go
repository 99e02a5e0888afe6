package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/session"
	"github.com/desertthunder/gamescout/internal/shared"
	"github.com/desertthunder/gamescout/internal/store"
	"github.com/desertthunder/gamescout/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	gateway services.Gateway
	creds   *store.CredentialStore
	session *session.Manager
	tracker *tasks.Tracker
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Gateway services.Gateway
	Creds   *store.CredentialStore
	Session *session.Manager
	Tracker *tasks.Tracker
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Session == nil && opts.Gateway != nil && opts.Creds != nil {
		opts.Session = session.NewManager(opts.Gateway, opts.Creds, opts.Logger)
	}
	if opts.Tracker == nil && opts.Gateway != nil {
		opts.Tracker = tasks.NewTracker(opts.Gateway, tasks.TrackerOpts{
			Interval: opts.Config.Upload.PollInterval(),
			MaxWait:  opts.Config.Upload.MaxWait(),
			Logger:   opts.Logger,
		})
	}

	return &Runner{
		config:  opts.Config,
		gateway: opts.Gateway,
		creds:   opts.Creds,
		session: opts.Session,
		tracker: opts.Tracker,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// SetLogger swaps the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, chatCommand, gamesCommand, uploadCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// requireSession resolves the active user, provisioning a guest if none is
// stored.
func (r *Runner) requireSession(ctx context.Context) (userKey string, err error) {
	if r.session == nil {
		return "", fmt.Errorf("%w: session manager not initialized", shared.ErrServiceUnavailable)
	}
	user, err := r.session.Current(ctx)
	if err != nil {
		return "", err
	}
	return user.UserKey, nil
}
