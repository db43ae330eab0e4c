package chunker

import "strings"

// ParseMarkdownTable parses a chunk's markdown-style table text back into a
// row/column grid of cell strings. Separator rows (|---|---|) are dropped.
// Returns nil if the text contains no table rows.
func ParseMarkdownTable(text string) [][]string {
	var rows [][]string
	cols := 0

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || !strings.Contains(line, "|") {
			continue
		}
		if isSeparatorRow(line) {
			continue
		}

		line = strings.Trim(line, "|")
		parts := strings.Split(line, "|")
		cells := make([]string, 0, len(parts))
		for _, p := range parts {
			cells = append(cells, strings.TrimSpace(p))
		}

		if cols < len(cells) {
			cols = len(cells)
		}
		rows = append(rows, cells)
	}

	if len(rows) == 0 {
		return nil
	}

	// Pad ragged rows so every row has the same column count.
	for i, row := range rows {
		for len(row) < cols {
			row = append(row, "")
		}
		rows[i] = row
	}

	return rows
}

// isSeparatorRow reports whether a line is a markdown header separator,
// e.g. "|---|:---:|---|".
func isSeparatorRow(line string) bool {
	seen := false
	for _, r := range line {
		switch r {
		case '|', '-', ':', ' ':
			if r == '-' {
				seen = true
			}
		default:
			return false
		}
	}
	return seen
}
