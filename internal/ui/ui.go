package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/services"
	"github.com/desertthunder/gamescout/internal/session"
	"github.com/desertthunder/gamescout/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ChatView ViewState = iota
	CatalogView
	DetailView
	UploadView
	AdminView
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	gateway services.Gateway
	session *session.Manager
	tracker *tasks.Tracker
	user    *models.User
	width   int
	height  int

	// chat
	transcript *tasks.Transcript
	chatInput  textinput.Model
	spin       spinner.Model
	waiting    bool
	streaming  bool
	targetID   string
	lastPrompt string
	retried    bool
	chunks     chan services.Chunk
	streamErr  chan error

	// catalog
	gameList list.Model
	games    []models.Game
	selected *models.Game

	// upload
	uploadForm   uploadForm
	uploadBar    progress.Model
	uploadID     string
	uploadEvents <-chan tasks.UploadUpdate
	uploadState  tasks.UploadState
	uploadErrMsg string

	// admin
	adminTable table.Model

	notice   string
	noticeOK bool
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, gateway services.Gateway, sess *session.Manager, tracker *tasks.Tracker) *Model {
	input := textinput.New()
	input.Placeholder = "Ask about games..."
	input.CharLimit = 500
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &Model{
		ctx:        ctx,
		view:       ChatView,
		gateway:    gateway,
		session:    sess,
		tracker:    tracker,
		transcript: tasks.NewTranscript(),
		chatInput:  input,
		spin:       spin,
		uploadForm: newUploadForm(),
		uploadBar:  progress.New(progress.WithDefaultGradient()),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init resolves the session, then loads history and the catalog.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.resolveSession(), m.spin.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.gameList.Width() == 0 {
			m.gameList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.teardown()
			return m, tea.Quit
		}
		switch m.view {
		case ChatView:
			return m.handleChatKeys(msg)
		case CatalogView:
			return m.handleCatalogKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case UploadView:
			return m.handleUploadKeys(msg)
		case AdminView:
			return m.handleAdminKeys(msg)
		}

	case sessionReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.user = msg.user
		return m, tea.Batch(m.loadHistory(), m.fetchGames())

	case historyLoadedMsg:
		if msg.err == nil {
			m.transcript.LoadHistory(msg.entries)
		}
		return m, nil

	case gamesFetchedMsg:
		return m.applyGames(msg)

	case chunkMsg:
		return m.applyChunk(msg)

	case streamClosedMsg:
		return m.applyStreamClosed(msg)

	case sessionRecoveredMsg:
		m.user = msg.user
		return m, m.resend(msg.prompt)

	case uploadSubmittedMsg:
		return m.applyUploadSubmitted(msg)

	case uploadTickMsg:
		return m.applyUploadTick(msg)

	case uploadChannelClosedMsg:
		m.uploadEvents = nil
		return m, nil

	case uploadFinishedMsg:
		// Leave the form once the completion notice has been seen.
		m.uploadID = ""
		if m.view == UploadView {
			m.view = CatalogView
		}
		return m, nil

	case gameDeletedMsg:
		if msg.err != nil {
			return m, notify(fmt.Sprintf("delete failed: %v", msg.err), false)
		}
		return m, tea.Batch(notify("game deleted", true), m.fetchGames())

	case notifyMsg:
		m.notice = msg.text
		m.noticeOK = !msg.isErr
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.uploadBar.Update(msg)
		m.uploadBar = bar.(progress.Model)
		return m, cmd
	}

	return m.updateComponents(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case ChatView:
		body = m.renderChat()
	case CatalogView:
		body = m.renderCatalog()
	case DetailView:
		body = m.renderDetail()
	case UploadView:
		body = m.renderUpload()
	case AdminView:
		body = m.renderAdmin()
	}

	if m.notice != "" {
		line := styles.warn.Render(m.notice)
		if m.noticeOK {
			line = styles.ok.Render(m.notice)
		}
		body = fmt.Sprintf("%s\n%s", body, line)
	}
	return body
}

func (m *Model) cycleView() {
	switch m.view {
	case ChatView:
		m.view = CatalogView
	case CatalogView:
		m.view = UploadView
	case UploadView:
		m.view = AdminView
	case AdminView:
		m.view = ChatView
	default:
		m.view = ChatView
	}
	m.notice = ""
}

// teardown stops background pollers so nothing lands after quit.
func (m *Model) teardown() {
	if m.tracker != nil {
		m.tracker.Stop()
	}
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case CatalogView:
		m.gameList, cmd = m.gameList.Update(msg)
	case AdminView:
		m.adminTable, cmd = m.adminTable.Update(msg)
	}
	return m, cmd
}

func (m *Model) resolveSession() tea.Cmd {
	return func() tea.Msg {
		user, err := m.session.Current(m.ctx)
		return sessionReadyMsg{user: user, err: err}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.gateway.ChatHistory(m.ctx, m.user.UserKey)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (m *Model) fetchGames() tea.Cmd {
	return func() tea.Msg {
		games, err := m.gateway.Games(m.ctx)
		return gamesFetchedMsg{games: games, err: err}
	}
}

func (m *Model) applyGames(msg gamesFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, notify(fmt.Sprintf("catalog unavailable: %v", msg.err), false)
	}
	m.games = msg.games

	items := make([]list.Item, len(msg.games))
	for i, game := range msg.games {
		items[i] = gameItem{game: game}
	}
	m.gameList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.gameList.Title = "Game Catalog"
	m.gameList.SetSize(m.width-4, m.height-8)

	m.adminTable = newAdminTable(msg.games, m.width)
	return m, nil
}

// notify wraps a transient status line in a command so views stay pure.
func notify(text string, ok bool) tea.Cmd {
	return func() tea.Msg {
		return notifyMsg{text: text, isErr: !ok}
	}
}
