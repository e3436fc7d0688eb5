package sqlquery

import (
	"strings"

	"agri-assist-be/pkg/store"
)

// FormatMarkdownTable renders an execution result as a GitHub-style
// markdown table, the shape the presentation layer shows verbatim.
func FormatMarkdownTable(result *store.SQLResult) string {
	if result == nil || len(result.Columns) == 0 {
		return ""
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}
	for _, row := range result.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(result.Columns)
	b.WriteString("|")
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("|")
	}
	b.WriteString("\n")
	for _, row := range result.Rows {
		writeRow(row)
	}

	return strings.TrimRight(b.String(), "\n")
}
