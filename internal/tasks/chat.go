// Streaming chat reducer: folds stream chunks into transcript state.
package tasks

import (
	"time"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/shared"
)

// ApplyResult describes what one chunk did to the transcript.
type ApplyResult struct {
	Changed     bool   // the target message was mutated
	StopWaiting bool   // the outer waiting indicator should stop
	Terminal    bool   // the message reached done or error
	Err         string // server-reported stream error, "" otherwise
}

// Transcript owns the ordered message list of one conversation. All
// mutations flow through its methods; chunk callbacks arrive sequentially,
// so no locking is needed.
//
// Invariant: at most one assistant message is streaming at a time, and it is
// always the most recently appended one.
type Transcript struct {
	messages []models.ChatMessage
	index    map[string]int
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{index: make(map[string]int)}
}

// Messages returns the transcript in order. The returned slice is shared;
// callers render it and must not mutate it.
func (t *Transcript) Messages() []models.ChatMessage {
	return t.messages
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Message returns the message with the given id.
func (t *Transcript) Message(id string) (models.ChatMessage, bool) {
	i, ok := t.index[id]
	if !ok {
		return models.ChatMessage{}, false
	}
	return t.messages[i], true
}

// LoadHistory replaces the transcript with stored history entries. History
// rows are complete; none of them stream.
func (t *Transcript) LoadHistory(entries []services.HistoryEntry) {
	t.messages = t.messages[:0]
	t.index = make(map[string]int)

	for _, entry := range entries {
		created, _ := time.Parse(time.RFC3339, entry.CreatedAt)
		t.append(models.ChatMessage{
			ID:        shared.GenerateID(),
			Role:      models.Role(entry.Role),
			Content:   entry.Content,
			Games:     entry.Games,
			CreatedAt: created,
		})
	}
}

// AppendUser appends a complete, immutable user message.
func (t *Transcript) AppendUser(content string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        shared.GenerateID(),
		Role:      models.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	t.append(msg)
	return msg
}

// AppendPlaceholder appends an empty assistant message with streaming
// active. Any assistant message still streaming is finalized first, keeping
// the single-streaming-message invariant even if a prior stream never
// reached a terminal chunk.
func (t *Transcript) AppendPlaceholder() models.ChatMessage {
	for i := range t.messages {
		if t.messages[i].Role == models.RoleAssistant && t.messages[i].Streaming {
			t.messages[i].Streaming = false
			t.messages[i].Status = models.StatusNone
		}
	}

	msg := models.ChatMessage{
		ID:        shared.GenerateID(),
		Role:      models.RoleAssistant,
		Streaming: true,
		CreatedAt: time.Now(),
	}
	t.append(msg)
	return msg
}

// Remove deletes the message with the given id. Used to drop a placeholder
// when the transport fails before any chunk arrives.
func (t *Transcript) Remove(id string) bool {
	i, ok := t.index[id]
	if !ok {
		return false
	}

	t.messages = append(t.messages[:i], t.messages[i+1:]...)
	delete(t.index, id)
	for j := i; j < len(t.messages); j++ {
		t.index[t.messages[j].ID] = j
	}
	return true
}

// ApplyChunk folds one stream chunk into the message identified by targetID.
//
// status sets the short status token. content appends a fragment and clears
// the status. games replaces the full list and clears the status. done and
// error are terminal: streaming stops and no later chunk mutates the message
// again. An unknown targetID is a no-op (the message was already removed).
func (t *Transcript) ApplyChunk(targetID string, chunk services.Chunk) ApplyResult {
	i, ok := t.index[targetID]
	if !ok {
		return ApplyResult{}
	}

	msg := &t.messages[i]
	if msg.Role != models.RoleAssistant || !msg.Streaming {
		// Terminal states are final; user messages are immutable.
		return ApplyResult{}
	}

	switch chunk.Type {
	case services.ChunkStatus:
		msg.Status = chunk.Status
		return ApplyResult{Changed: true}

	case services.ChunkContent:
		msg.Content += chunk.Content
		msg.Status = models.StatusNone
		return ApplyResult{Changed: true, StopWaiting: true}

	case services.ChunkGames:
		msg.Games = chunk.Games
		msg.Status = models.StatusNone
		return ApplyResult{Changed: true, StopWaiting: true}

	case services.ChunkDone:
		msg.Streaming = false
		msg.Status = models.StatusNone
		return ApplyResult{Changed: true, StopWaiting: true, Terminal: true}

	case services.ChunkError:
		// The partially built message stays visible.
		msg.Streaming = false
		msg.Status = models.StatusNone
		return ApplyResult{Changed: true, StopWaiting: true, Terminal: true, Err: chunk.Err}

	default:
		return ApplyResult{}
	}
}

func (t *Transcript) append(msg models.ChatMessage) {
	t.index[msg.ID] = len(t.messages)
	t.messages = append(t.messages, msg)
}
