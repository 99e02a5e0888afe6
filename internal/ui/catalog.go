package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
)

func (m *Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.gameList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.gameList, cmd = m.gameList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.teardown()
		return m, tea.Quit
	case "tab":
		m.cycleView()
		return m, nil
	case "r":
		return m, m.fetchGames()
	case "enter":
		selected := m.gameList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(gameItem); ok {
				game := item.game
				m.selected = &game
				m.view = DetailView
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.gameList, cmd = m.gameList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.teardown()
		return m, tea.Quit
	case "esc":
		m.selected = nil
		m.view = CatalogView
		return m, nil
	case "o":
		if m.selected != nil {
			return m, m.openDownload(*m.selected)
		}
	}
	return m, nil
}

// openDownload resolves the download URL (signing it when it points at
// object storage) and hands it to the system browser.
func (m *Model) openDownload(game models.Game) tea.Cmd {
	return func() tea.Msg {
		if game.GameFileURL == "" {
			return notifyMsg{text: "no download available", isErr: true}
		}

		url := game.GameFileURL
		if game.StorageType != models.StorageNetdisk {
			signed, err := m.gateway.SignedURL(m.ctx, url)
			if err != nil {
				return notifyMsg{text: fmt.Sprintf("could not resolve download: %v", err), isErr: true}
			}
			url = signed
		}

		if err := shared.OpenBrowser(url); err != nil {
			return notifyMsg{text: fmt.Sprintf("could not open browser: %v", err), isErr: true}
		}
		return notifyMsg{text: "opened download link"}
	}
}

func (m *Model) renderCatalog() string {
	helpView := m.help.ShortHelpView(m.keys.ShortHelp())
	return fmt.Sprintf("%s\n\n%s", m.gameList.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return styles.err.Render("nothing selected")
	}
	game := *m.selected

	var b strings.Builder
	title := game.Name
	if game.NameEN != "" && game.NameEN != game.Name {
		title = fmt.Sprintf("%s (%s)", game.Name, game.NameEN)
	}
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")

	if game.Description != "" {
		b.WriteString(game.Description)
		b.WriteString("\n\n")
	}
	if game.Category != "" {
		b.WriteString(fmt.Sprintf("Category: %s\n", game.Category))
	}
	if game.StorageType == models.StorageNetdisk {
		b.WriteString(fmt.Sprintf("Source: %s\n", models.NetdiskName(game.NetdiskType)))
	} else if game.FileSize > 0 {
		b.WriteString(fmt.Sprintf("Size: %s\n", shared.FormatBytes(game.FileSize)))
	}
	if len(game.Tags) > 0 {
		b.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(game.Tags, ", ")))
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.keys.FullHelp()[2]))
	return b.String()
}
