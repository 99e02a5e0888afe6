package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
)

// newAdminTable builds the catalog management table.
func newAdminTable(games []models.Game, width int) table.Model {
	nameWidth := 30
	if width > 80 {
		nameWidth = width - 50
	}

	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: nameWidth},
		{Title: "Category", Width: 14},
		{Title: "Storage", Width: 12},
		{Title: "Size", Width: 10},
	}

	rows := make([]table.Row, len(games))
	for i, game := range games {
		storage := string(models.StorageOSS)
		if game.StorageType == models.StorageNetdisk {
			storage = game.NetdiskType
		}
		size := "-"
		if game.FileSize > 0 {
			size = shared.FormatBytes(game.FileSize)
		}
		rows[i] = table.Row{strconv.Itoa(game.ID), game.Name, game.Category, storage, size}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	return t
}

func (m *Model) handleAdminKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.teardown()
		return m, tea.Quit
	case "tab":
		m.cycleView()
		return m, nil
	case "r":
		return m, m.fetchGames()
	case "d":
		row := m.adminTable.SelectedRow()
		if row == nil {
			return m, nil
		}
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return m, nil
		}
		return m, m.deleteGame(id)
	}

	var cmd tea.Cmd
	m.adminTable, cmd = m.adminTable.Update(msg)
	return m, cmd
}

func (m *Model) deleteGame(id int) tea.Cmd {
	return func() tea.Msg {
		err := m.gateway.DeleteGame(m.ctx, id)
		return gameDeletedMsg{id: id, err: err}
	}
}

func (m *Model) renderAdmin() string {
	title := styles.title.Render("Catalog Admin")
	helpView := m.help.ShortHelpView(m.keys.FullHelp()[2])
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.adminTable.View(), helpView)
}
