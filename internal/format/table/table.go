// Package table lays out plain-text columns for the terminal panels.
package table

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Column describes one table column.
type Column struct {
	Header string
	Align  Alignment
}

// Format pads rows so every column is as wide as its widest cell, including
// the header. The header line comes first when any column has one.
func Format(columns []Column, rows [][]string) []string {
	if len(columns) == 0 {
		return nil
	}
	widths := make([]int, len(columns))
	hasHeader := false
	for c, col := range columns {
		widths[c] = lipgloss.Width(col.Header)
		if col.Header != "" {
			hasHeader = true
		}
	}
	for _, row := range rows {
		for c := 0; c < len(row) && c < len(columns); c++ {
			if w := lipgloss.Width(row[c]); w > widths[c] {
				widths[c] = w
			}
		}
	}

	out := make([]string, 0, len(rows)+1)
	if hasHeader {
		header := make([]string, len(columns))
		for c, col := range columns {
			header[c] = col.Header
		}
		out = append(out, formatRow(columns, widths, header))
	}
	for _, row := range rows {
		out = append(out, formatRow(columns, widths, row))
	}
	return out
}

func formatRow(columns []Column, widths []int, row []string) string {
	var b strings.Builder
	for c := range columns {
		cell := ""
		if c < len(row) {
			cell = row[c]
		}
		if c > 0 {
			b.WriteString("  ")
		}
		pad := strings.Repeat(" ", max(widths[c]-lipgloss.Width(cell), 0))
		if columns[c].Align == AlignRight {
			b.WriteString(pad)
			b.WriteString(cell)
			continue
		}
		b.WriteString(cell)
		if c < len(columns)-1 {
			b.WriteString(pad)
		}
	}
	return b.String()
}
