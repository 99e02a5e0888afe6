package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
)

var _ list.Item = gameItem{}

// gameItem wraps [models.Game] to implement [list.Item].
type gameItem struct {
	game models.Game
}

func (i gameItem) FilterValue() string { return i.game.Name + " " + i.game.NameEN }
func (i gameItem) Title() string {
	if i.game.NameEN != "" && i.game.NameEN != i.game.Name {
		return fmt.Sprintf("%s (%s)", i.game.Name, i.game.NameEN)
	}
	return i.game.Name
}
func (i gameItem) Description() string {
	desc := i.game.Category
	if desc == "" {
		desc = "uncategorized"
	}
	if i.game.StorageType == models.StorageNetdisk {
		desc = fmt.Sprintf("%s • %s", desc, models.NetdiskName(i.game.NetdiskType))
	} else if i.game.FileSize > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatBytes(i.game.FileSize))
	}
	return desc
}
