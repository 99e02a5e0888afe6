package ui

import (
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/tasks"
)

// sessionReadyMsg carries the resolved session at startup.
type sessionReadyMsg struct {
	user *models.User
	err  error
}

// historyLoadedMsg carries the stored transcript.
type historyLoadedMsg struct {
	entries []services.HistoryEntry
	err     error
}

// chunkMsg is one stream chunk addressed to the placeholder message.
type chunkMsg struct {
	targetID string
	chunk    services.Chunk
}

// streamClosedMsg signals that the stream goroutine returned. err is nil
// after a terminal chunk; otherwise it describes the transport failure.
type streamClosedMsg struct {
	targetID  string
	delivered bool
	err       error
}

// gamesFetchedMsg carries catalog rows for the browse and admin views.
type gamesFetchedMsg struct {
	games []models.Game
	err   error
}

// uploadSubmittedMsg signals that the upload request was accepted or failed.
type uploadSubmittedMsg struct {
	uploadID string
	err      error
}

// uploadTickMsg is one tracker event pumped into the update loop.
type uploadTickMsg tasks.UploadUpdate

// uploadChannelClosedMsg signals the tracker channel closed without a
// terminal event (consumer cancelled).
type uploadChannelClosedMsg struct{}

// uploadFinishedMsg fires shortly after a completed upload so the form view
// can hand off to the catalog.
type uploadFinishedMsg struct{}

// gameDeletedMsg reports the outcome of an admin delete.
type gameDeletedMsg struct {
	id  int
	err error
}

// notifyMsg is a transient status line shown by the root model. Views emit
// it instead of touching shared state.
type notifyMsg struct {
	text  string
	isErr bool
}
