package ui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/shared"
)

func (m *Model) handleChatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		if !m.chatInput.Focused() {
			m.teardown()
			return m, tea.Quit
		}
	case "esc":
		m.chatInput.Blur()
		return m, nil
	case "tab":
		m.cycleView()
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" || m.streaming {
			return m, nil
		}
		m.chatInput.SetValue("")
		m.retried = false
		return m, m.send(text)
	default:
		if !m.chatInput.Focused() {
			m.chatInput.Focus()
		}
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

// send appends the user message and a streaming placeholder, then starts the
// stream goroutine. Chunks arrive through a channel pumped back into the
// update loop, one message per chunk, preserving arrival order.
func (m *Model) send(text string) tea.Cmd {
	m.transcript.AppendUser(text)
	return m.stream(text)
}

// resend restarts a prompt whose user message is already in the transcript.
// Silent session recovery goes through here so the prompt is not shown twice.
func (m *Model) resend(text string) tea.Cmd {
	return m.stream(text)
}

func (m *Model) stream(text string) tea.Cmd {
	placeholder := m.transcript.AppendPlaceholder()
	m.targetID = placeholder.ID
	m.lastPrompt = text
	m.waiting = true
	m.streaming = true

	m.chunks = make(chan services.Chunk, 16)
	m.streamErr = make(chan error, 1)

	chunks, errc := m.chunks, m.streamErr
	go func() {
		err := m.gateway.SendStream(m.ctx, text, m.user.UserKey, func(chunk services.Chunk) error {
			chunks <- chunk
			return nil
		})
		errc <- err
		close(chunks)
	}()

	return tea.Batch(m.waitForChunk(), m.spin.Tick)
}

// waitForChunk blocks on the chunk channel and converts the next event into
// a bubbletea message.
func (m *Model) waitForChunk() tea.Cmd {
	chunks, errc, targetID := m.chunks, m.streamErr, m.targetID
	delivered := m.transcriptChanged(targetID)
	return func() tea.Msg {
		chunk, ok := <-chunks
		if !ok {
			return streamClosedMsg{targetID: targetID, delivered: delivered, err: <-errc}
		}
		return chunkMsg{targetID: targetID, chunk: chunk}
	}
}

func (m *Model) transcriptChanged(targetID string) bool {
	msg, ok := m.transcript.Message(targetID)
	if !ok {
		return false
	}
	return msg.Content != "" || len(msg.Games) > 0 || msg.Status != models.StatusNone
}

func (m *Model) applyChunk(msg chunkMsg) (tea.Model, tea.Cmd) {
	result := m.transcript.ApplyChunk(msg.targetID, msg.chunk)
	if result.StopWaiting {
		m.waiting = false
	}
	if result.Terminal {
		m.streaming = false
	}

	cmds := []tea.Cmd{m.waitForChunk()}
	if result.Err != "" {
		cmds = append(cmds, notify(fmt.Sprintf("assistant error: %s", result.Err), false))
	}
	return m, tea.Batch(cmds...)
}

// applyStreamClosed finishes the stream lifecycle. A failure before any chunk
// removes the placeholder; a mid-stream failure finalizes the partial
// message. The server forgetting our key silently re-provisions a guest and
// retries the prompt once.
func (m *Model) applyStreamClosed(msg streamClosedMsg) (tea.Model, tea.Cmd) {
	m.chunks = nil
	m.streamErr = nil
	m.streaming = false
	m.waiting = false

	if msg.err == nil {
		return m, nil
	}

	if services.IsUserNotFound(msg.err) && !m.retried {
		m.retried = true
		m.transcript.Remove(msg.targetID)
		prompt := m.lastPrompt
		cause := msg.err
		return m, func() tea.Msg {
			user, recovered, err := m.session.Recover(m.ctx, cause)
			if !recovered {
				return notifyMsg{text: fmt.Sprintf("session error: %v", err), isErr: true}
			}
			return sessionRecoveredMsg{user: user, prompt: prompt}
		}
	}

	if !msg.delivered && errors.Is(msg.err, shared.ErrStreamClosed) {
		m.transcript.Remove(msg.targetID)
		return m, notify("assistant unavailable, try again", false)
	}

	m.transcript.ApplyChunk(msg.targetID, services.Chunk{Type: services.ChunkError, Err: msg.err.Error()})
	return m, notify(fmt.Sprintf("stream interrupted: %v", msg.err), false)
}

// sessionRecoveredMsg carries the fresh guest session and the prompt to
// resend after silent recovery.
type sessionRecoveredMsg struct {
	user   *models.User
	prompt string
}

func (m *Model) renderChat() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Game Scout"))
	b.WriteString("\n")

	messages := m.transcript.Messages()
	start := 0
	if visible := m.visibleMessages(); len(messages) > visible {
		start = len(messages) - visible
	}

	for _, message := range messages[start:] {
		b.WriteString(m.renderMessage(message))
	}

	if m.waiting {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spin.View(), styles.status.Render("thinking...")))
	}

	b.WriteString("\n")
	b.WriteString(m.chatInput.View())
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) visibleMessages() int {
	if m.height <= 0 {
		return 8
	}
	n := (m.height - 8) / 3
	if n < 2 {
		n = 2
	}
	return n
}

func (m *Model) renderMessage(message models.ChatMessage) string {
	var b strings.Builder

	switch message.Role {
	case models.RoleUser:
		b.WriteString(styles.user.Render("you: "))
		b.WriteString(message.Content)
	case models.RoleAssistant:
		b.WriteString(styles.ok.Render("scout: "))
		if message.Status != models.StatusNone {
			b.WriteString(styles.status.Render(statusLabel(message.Status)))
		}
		b.WriteString(styles.bot.Render(message.Content))
		// Cards render as soon as the games chunk lands, even mid-stream.
		for _, game := range message.Games {
			b.WriteString("\n")
			b.WriteString(styles.card.Render(gameCard(game)))
		}
	}

	b.WriteString("\n")
	return b.String()
}

func statusLabel(status models.StreamStatus) string {
	switch status {
	case models.StatusAnalyzing:
		return "analyzing your request... "
	case models.StatusSearching:
		return "searching the catalog... "
	default:
		return string(status) + " "
	}
}

// gameCard renders one recommendation card inline in the transcript.
func gameCard(game models.Game) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(game.Name))
	if game.Category != "" {
		b.WriteString(fmt.Sprintf("\n%s", styles.help.Render(game.Category)))
	}
	if game.Description != "" {
		desc := game.Description
		if len(desc) > 120 {
			desc = desc[:117] + "..."
		}
		b.WriteString(fmt.Sprintf("\n%s", desc))
	}
	if game.StorageType == models.StorageNetdisk {
		b.WriteString(fmt.Sprintf("\n%s", styles.help.Render(models.NetdiskName(game.NetdiskType))))
	} else if game.FileSize > 0 {
		b.WriteString(fmt.Sprintf("\n%s", styles.help.Render(shared.FormatBytes(game.FileSize))))
	}
	return b.String()
}
