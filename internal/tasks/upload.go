// Upload progress tracker: polls the progress endpoint to a terminal state.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
)

// UploadState enumerates tracker outcomes.
type UploadState int

const (
	UploadRunning UploadState = iota
	UploadDone
	UploadFailed
)

// UploadUpdate is one tracker event. Terminal is true exactly once per
// tracked upload, on the completion, error, or timeout event.
type UploadUpdate struct {
	UploadID string
	Percent  int
	State    UploadState
	Message  string
	Terminal bool
}

// ProgressPoller is the single gateway call the tracker depends on.
type ProgressPoller interface {
	UploadProgress(ctx context.Context, uploadID string) (*models.UploadProgress, error)
}

// Tracker polls the progress endpoint for one in-flight upload on a fixed
// interval and drives it to a terminal state. A single failed poll is
// swallowed as "no update"; only a server-reported error, completion, or the
// configured max wait ends the loop abnormally or normally.
type Tracker struct {
	poller   ProgressPoller
	interval time.Duration
	maxWait  time.Duration
	logger   *log.Logger

	// tick is swapped in tests for a fake clock.
	tick func(d time.Duration) (<-chan time.Time, func())

	mu     sync.Mutex
	cancel context.CancelFunc
}

// TrackerOpts configures a [Tracker].
type TrackerOpts struct {
	Interval time.Duration // poll interval, default 1s
	MaxWait  time.Duration // give-up ceiling, 0 trusts the server indefinitely
	Logger   *log.Logger
}

// NewTracker creates a Tracker polling via poller.
func NewTracker(poller ProgressPoller, opts TrackerOpts) *Tracker {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Tracker{
		poller:   poller,
		interval: opts.Interval,
		maxWait:  opts.MaxWait,
		logger:   opts.Logger,
		tick: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Start begins polling for uploadID and returns the event channel. The
// channel closes after the terminal event or when the loop is cancelled.
// Calling Start while a loop is active cancels the previous loop first, so
// one tracker never runs overlapping polls.
func (t *Tracker) Start(ctx context.Context, uploadID string) <-chan UploadUpdate {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	updates := make(chan UploadUpdate, 16)
	go t.loop(loopCtx, uploadID, updates)
	return updates
}

// Stop cancels the active poll loop. It must be called on consumer teardown
// so no update lands after the consumer is gone; it is idempotent and safe
// after a terminal event.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker) loop(ctx context.Context, uploadID string, updates chan<- UploadUpdate) {
	defer close(updates)

	ticks, stop := t.tick(t.interval)
	defer stop()

	var elapsed time.Duration

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticks:
			elapsed += t.interval

			progress, err := t.poller.UploadProgress(ctx, uploadID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// A poll hiccup is not an upload failure.
				t.logger.Debug("progress poll failed, continuing", "upload_id", uploadID, "err", err)
			}

			if progress != nil {
				if terminal := t.reduce(ctx, uploadID, progress, updates); terminal {
					return
				}
			}

			if t.maxWait > 0 && elapsed >= t.maxWait {
				t.emit(ctx, updates, UploadUpdate{
					UploadID: uploadID,
					State:    UploadFailed,
					Message:  shared.ErrUploadTimeout.Error(),
					Terminal: true,
				})
				return
			}
		}
	}
}

// reduce folds one poll result into tracker events. Returns true on a
// terminal outcome, which is emitted exactly once because the loop exits
// immediately after.
func (t *Tracker) reduce(ctx context.Context, uploadID string, progress *models.UploadProgress, updates chan<- UploadUpdate) bool {
	switch {
	case progress.Status == models.UploadError:
		message := progress.Error
		if message == "" {
			message = shared.ErrUploadFailed.Error()
		}
		t.emit(ctx, updates, UploadUpdate{
			UploadID: uploadID,
			Percent:  progress.Percent,
			State:    UploadFailed,
			Message:  message,
			Terminal: true,
		})
		return true

	case progress.Status == models.UploadCompleted || progress.Percent == 100:
		t.emit(ctx, updates, UploadUpdate{
			UploadID: uploadID,
			Percent:  100,
			State:    UploadDone,
			Terminal: true,
		})
		return true

	case progress.Percent > 0:
		// Display-only update; the server re-reports absolute percent each
		// tick, so a dropped send loses nothing.
		select {
		case updates <- UploadUpdate{UploadID: uploadID, Percent: progress.Percent, State: UploadRunning}:
		default:
		}
	}

	return false
}

// emit delivers a terminal update, giving up only if the consumer context
// ended.
func (t *Tracker) emit(ctx context.Context, updates chan<- UploadUpdate, update UploadUpdate) {
	select {
	case updates <- update:
	case <-ctx.Done():
	}
}
