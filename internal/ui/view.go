package ui

import (
	"fmt"
	"strings"

	"github.com/atomicstack/staircase-viewer/internal/format/table"
	"github.com/atomicstack/staircase-viewer/internal/render"
	"github.com/atomicstack/staircase-viewer/internal/theme"
	"github.com/atomicstack/staircase-viewer/internal/viewer"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
)

const (
	defaultWidth       = 80
	defaultHeight      = 24
	chromeLines        = 3 // header, status, footer
	previewFraction    = 0.55
	topFraction        = 0.6
	minSideBySideWidth = 60
	tableGap           = 1
)

const footerText = "l demo  r reload  e empty  s splash  f fit  c cancel  / filter  q quit"

// dimensions returns the terminal size, falling back to a classic 80x24.
func (m *Model) dimensions() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// regions splits the body into the frame preview, the entity table and the
// raw content viewport.
func (m *Model) regions() (previewCols, tableCols, topRows, contentRows int) {
	w, h := m.dimensions()
	body := h - chromeLines
	if body < 4 {
		body = 4
	}
	topRows = int(float64(body) * topFraction)
	contentRows = body - topRows
	if w < minSideBySideWidth {
		return w, w, topRows, contentRows
	}
	previewCols = int(float64(w) * previewFraction)
	tableCols = w - previewCols - tableGap
	return previewCols, tableCols, topRows, contentRows
}

// tableRows is the number of entity rows that fit under the table header
// and filter line.
func (m *Model) tableRows() int {
	_, _, top, _ := m.regions()
	w, _ := m.dimensions()
	rows := top - 1
	if w < minSideBySideWidth {
		rows = top/2 - 1
	}
	if m.filtering || m.list.Filter.Query != "" {
		rows--
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) layout() {
	w, _ := m.dimensions()
	_, _, _, contentRows := m.regions()
	m.content.Width = w
	m.content.Height = contentRows - 1
	if m.content.Height < 1 {
		m.content.Height = 1
	}
	m.list.EnsureCursorVisible(m.tableRows())
}

// View implements tea.Model.
func (m *Model) View() string {
	w, _ := m.dimensions()
	previewCols, tableCols, topRows, _ := m.regions()

	var top string
	if w < minSideBySideWidth {
		half := topRows / 2
		top = lipgloss.JoinVertical(lipgloss.Left,
			block(m.framePreview(previewCols, topRows-half), previewCols),
			block(m.entityTable(tableCols), tableCols),
		)
	} else {
		top = lipgloss.JoinHorizontal(lipgloss.Top,
			block(m.framePreview(previewCols, topRows), previewCols),
			strings.Repeat(" ", tableGap),
			block(m.entityTable(tableCols), tableCols),
		)
	}

	lines := []string{
		m.headerLine(w),
		top,
		clip(theme.Render(styles.PanelTitle, "content"), w),
		m.content.View(),
		m.statusLine(w),
		clip(theme.Render(styles.Footer, footerText), w),
	}
	return strings.Join(lines, "\n")
}

func (m *Model) headerLine(width int) string {
	title := theme.Render(styles.Title, "staircase-viewer")
	version := theme.Render(styles.Version, viewer.Version())
	return clip(title+"  "+version, width)
}

// framePreview renders the surface as half blocks. The result is cached
// until the surface draws again or the region changes size.
func (m *Model) framePreview(cols, rows int) []string {
	frame := m.raster.Frames()
	size := [2]int{cols, rows}
	if m.preview != nil && frame == m.previewFrame && size == m.previewSize {
		return m.preview
	}
	m.preview = render.Preview(m.raster.Image(), cols, rows)
	m.previewFrame = frame
	m.previewSize = size
	return m.preview
}

func (m *Model) entityTable(width int) []string {
	var lines []string
	if filter := m.filterLine(); filter != "" {
		lines = append(lines, clip(filter, width))
	}
	if len(m.list.Full) == 0 {
		return append(lines, theme.Render(styles.Info, "(no document)"))
	}
	if len(m.list.Items) == 0 {
		msg := fmt.Sprintf("No matches for %q", m.list.Filter.Query)
		return append(lines, theme.Render(styles.Info, clip(msg, width)))
	}

	visible := m.tableRows()
	rows := m.list.Visible(visible)
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = []string{row.Type, humanize.Comma(int64(row.Count))}
	}
	formatted := table.Format([]table.Column{
		{Header: "ENTITY"},
		{Header: "COUNT", Align: table.AlignRight},
	}, cells)
	lines = append(lines, clip(theme.Render(styles.TableHeader, formatted[0]), width))
	for i, text := range formatted[1:] {
		style := styles.Row
		if m.list.Offset+i == m.list.Cursor {
			style = styles.SelectedRow
		}
		lines = append(lines, theme.Render(style, clip(text, width)))
	}
	return lines
}

func (m *Model) statusLine(width int) string {
	var parts []string
	if m.viewer.Loading() || m.viewer.State().Loading() {
		frames := m.spinner.Spinner.Frames
		glyph := frames[m.viewer.State().Render.Indicator.Phase%len(frames)]
		size := humanize.Bytes(uint64(len(m.viewer.StepFileContent())))
		parts = append(parts, m.spinner.Style.Render(glyph)+" "+theme.Render(styles.Loading, "Loading "+size))
	} else if doc := m.viewer.Document(); doc != nil {
		summary := []string{doc.Name}
		if fields := strings.Fields(doc.Schema); len(fields) > 0 {
			summary = append(summary, fields[0])
		}
		summary = append(summary,
			humanize.Comma(int64(doc.Entities))+" entities",
			humanize.Bytes(uint64(doc.Size)),
		)
		parts = append(parts, theme.Render(styles.Status, strings.Join(summary, " · ")))
	} else {
		parts = append(parts, theme.Render(styles.Status, "no document"))
	}
	if lastErr := m.viewer.LastError(); lastErr != "" {
		parts = append(parts, theme.Render(styles.Error, lastErr))
	}
	if m.errMsg != "" {
		parts = append(parts, theme.Render(styles.Error, m.errMsg))
	}
	if info := m.currentInfo(); info != "" {
		parts = append(parts, theme.Render(styles.Info, info))
	}
	return clip(strings.Join(parts, "  "), width)
}

// block pads every line to width and joins them.
func block(lines []string, width int) string {
	padded := make([]string, len(lines))
	for i, line := range lines {
		line = clip(line, width)
		if gap := width - lipgloss.Width(line); gap > 0 {
			line += strings.Repeat(" ", gap)
		}
		padded[i] = line
	}
	return strings.Join(padded, "\n")
}

func clip(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return truncate.StringWithTail(text, uint(width), "…")
}
