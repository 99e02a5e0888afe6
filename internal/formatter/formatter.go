// package formatter provides functions to export game catalog data to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
)

// GamesToCSV converts a game list to CSV format with columns: ID, Name, NameEN, Category, Storage, Size, Tags
func GamesToCSV(games []models.Game) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "NameEN", "Category", "Storage", "Size", "Tags"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, game := range games {
		record := []string{
			strconv.Itoa(game.ID),
			game.Name,
			game.NameEN,
			game.Category,
			storageLabel(game),
			strconv.FormatInt(game.FileSize, 10),
			strings.Join(game.Tags, ";"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// GamesToMarkdown converts a game list to a Markdown catalog document
func GamesToMarkdown(games []models.Game) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Game Catalog\n\n")
	buf.WriteString(fmt.Sprintf("**Games**: %d\n\n", len(games)))

	for _, game := range games {
		title := game.Name
		if game.NameEN != "" && game.NameEN != game.Name {
			title = fmt.Sprintf("%s (%s)", game.Name, game.NameEN)
		}
		buf.WriteString(fmt.Sprintf("## %s\n\n", title))

		if game.CoverImageURL != "" {
			buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", game.CoverImageURL))
		}
		if game.Description != "" {
			buf.WriteString(fmt.Sprintf("%s\n\n", game.Description))
		}

		buf.WriteString(fmt.Sprintf("- **Category**: %s\n", game.Category))
		buf.WriteString(fmt.Sprintf("- **Storage**: %s\n", storageLabel(game)))
		if game.FileSize > 0 {
			buf.WriteString(fmt.Sprintf("- **Size**: %s\n", shared.FormatBytes(game.FileSize)))
		}
		if len(game.Tags) > 0 {
			buf.WriteString(fmt.Sprintf("- **Tags**: %s\n", strings.Join(game.Tags, ", ")))
		}
		if game.GameFileURL != "" {
			buf.WriteString(fmt.Sprintf("- **Download**: %s\n", game.GameFileURL))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// GamesToText converts a game list to plain text format
func GamesToText(games []models.Game) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Game Catalog (%d games)\n\n", len(games)))

	for i, game := range games {
		buf.WriteString(fmt.Sprintf("%d. %s", i+1, game.Name))
		if game.Category != "" {
			buf.WriteString(fmt.Sprintf(" [%s]", game.Category))
		}
		if game.FileSize > 0 {
			buf.WriteString(fmt.Sprintf(" (%s)", shared.FormatBytes(game.FileSize)))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// storageLabel renders the storage column: the provider name for cloud drive
// entries, "oss" for direct object storage.
func storageLabel(game models.Game) string {
	if game.StorageType == models.StorageNetdisk {
		return fmt.Sprintf("netdisk/%s", models.NetdiskName(game.NetdiskType))
	}
	return string(models.StorageOSS)
}
