// Package formatter renders tables as aligned markdown for previews.
package formatter

import (
	"fmt"
	"strings"

	"gradeflow/internal/models"

	"github.com/mattn/go-runewidth"
)

// DefaultMaxCellWidth caps the display width of a preview cell.
const DefaultMaxCellWidth = 32

const ellipsis = "…"

// RenderTable renders the header and the first limit rows of a table as a
// markdown table padded by display width, so wide (CJK, emoji) text stays
// aligned. Cells wider than maxCellWidth are truncated with an ellipsis. A
// negative limit renders every row; maxCellWidth <= 0 uses the default.
func RenderTable(table *models.Table, limit, maxCellWidth int) string {
	if table == nil || len(table.Header) == 0 {
		return ""
	}

	if maxCellWidth <= 0 {
		maxCellWidth = DefaultMaxCellWidth
	}

	head := table.Head(limit)

	// 1. Collect cells: header, data rows
	cells := make([][]string, 0, head.Len()+1)
	cells = append(cells, cleanRow(head.Header, maxCellWidth))

	for _, row := range head.Rows {
		cells = append(cells, cleanRow(row, maxCellWidth))
	}

	// 2. Calculate max widths (using display width)
	colCount := len(head.Header)
	colWidths := make([]int, colCount)

	for _, row := range cells {
		for i := 0; i < len(row) && i < colCount; i++ {
			if width := runewidth.StringWidth(row[i]); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// Ensure min width for separator (usually 3 dashes "---")
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	// 3. Reconstruct lines
	lines := make([]string, 0, len(cells)+2)
	lines = append(lines, formatRow(cells[0], colWidths))
	lines = append(lines, separator(colWidths))

	for _, row := range cells[1:] {
		lines = append(lines, formatRow(row, colWidths))
	}

	if hidden := table.Len() - head.Len(); hidden > 0 {
		lines = append(lines, fmt.Sprintf("… %d more rows", hidden))
	}

	return strings.Join(lines, "\n") + "\n"
}

func cleanRow(row []string, maxWidth int) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		cell = strings.Join(strings.Fields(cell), " ")
		cell = strings.ReplaceAll(cell, "|", "\\|")
		out[i] = runewidth.Truncate(cell, maxWidth, ellipsis)
	}

	return out
}

func formatRow(row []string, widths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range widths {
		content := ""
		if j < len(row) {
			content = row[j]
		}

		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(content, width))
		sb.WriteString(" |")
	}

	return sb.String()
}

func separator(widths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for _, width := range widths {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", width))
		sb.WriteString(" |")
	}

	return sb.String()
}
