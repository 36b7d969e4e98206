package ui

import (
	"unicode"

	"github.com/atomicstack/staircase-viewer/internal/logging/events"
	"github.com/atomicstack/staircase-viewer/internal/theme"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	events.UI.Key(keyMsg.String())
	if keyMsg.Type == tea.KeyCtrlC {
		return m.quit()
	}
	if m.filtering {
		return m.handleFilterKey(keyMsg)
	}

	switch keyMsg.String() {
	case "q":
		return m.quit()
	case "l":
		return m.loadDemo()
	case "r":
		return m.reloadFile()
	case "e":
		m.viewer.InitEmptyScene()
		m.setInfo("Empty scene")
	case "s":
		m.viewer.DisplaySplashScreen()
	case "f":
		m.viewer.FitAll()
	case "c":
		if m.viewer.CancelLoad() {
			m.setInfo("Cancelling load")
		}
	case "/":
		m.filtering = true
		m.cursorDirty = true
		return m.filterCursor.Focus()
	case "esc":
		if m.list.ClearFilter() {
			events.Filter.Cleared()
			m.layout()
		}
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "home", "g":
		m.list.MoveCursorHome()
		m.list.EnsureCursorVisible(m.tableRows())
	case "end", "G":
		m.list.MoveCursorEnd()
		m.list.EnsureCursorVisible(m.tableRows())
	case "pgup":
		m.content.HalfViewUp()
	case "pgdown", " ":
		m.content.HalfViewDown()
	case "ctrl+u":
		m.content.LineUp(1)
	case "ctrl+d":
		m.content.LineDown(1)
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.cancel()
	m.viewer.CancelLoad()
	return tea.Quit
}

func (m *Model) moveCursor(delta int) {
	if m.list.MoveCursor(delta) {
		m.list.EnsureCursorVisible(m.tableRows())
	}
}

func (m *Model) updateFilterCursorModel(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.filterCursor, cmd = m.filterCursor.Update(msg)
	return cmd
}

// handleFilterKey edits the entity filter. Enter keeps the query and leaves
// the filter line; esc drops it.
func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	before := m.list.Filter.CursorPos()
	changed := false
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filterCursor.Blur()
		return nil
	case "esc":
		m.filtering = false
		m.filterCursor.Blur()
		if m.list.ClearFilter() {
			events.Filter.Cleared()
			m.layout()
		}
		return nil
	case "ctrl+u":
		changed = m.list.ClearFilter()
		if changed {
			events.Filter.Cleared()
		}
	case "ctrl+w":
		changed = m.list.DeleteFilterWordBackward()
		if changed {
			events.Filter.WordBackspace(m.list.Filter.Query)
		}
	case "alt+b":
		m.list.MoveFilterCursorWordBackward()
	case "ctrl+a":
		m.list.MoveFilterCursor(-len(m.list.Filter.Query))
	case "ctrl+e":
		m.list.MoveFilterCursor(len(m.list.Filter.Query))
	case "up":
		m.moveCursor(-1)
	case "down":
		m.moveCursor(1)
	default:
		changed = m.handleFilterText(msg)
	}
	if changed {
		m.errMsg = ""
		m.list.EnsureCursorVisible(m.tableRows())
	}
	if before != m.list.Filter.CursorPos() {
		m.cursorDirty = true
	}
	return nil
}

func (m *Model) handleFilterText(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyCtrlH:
		if m.list.DeleteFilterRuneBackward() {
			events.Filter.Backspace(m.list.Filter.Query)
			return true
		}
	case tea.KeyLeft:
		m.list.MoveFilterCursor(-1)
	case tea.KeyRight:
		m.list.MoveFilterCursor(1)
	case tea.KeySpace:
		return m.appendToFilter(" ")
	case tea.KeyRunes:
		if msg.Alt || len(msg.Runes) == 0 {
			return false
		}
		for _, r := range msg.Runes {
			if unicode.IsControl(r) {
				return false
			}
		}
		return m.appendToFilter(string(msg.Runes))
	}
	return false
}

func (m *Model) appendToFilter(text string) bool {
	if !m.list.InsertFilterText(text) {
		return false
	}
	events.Filter.Append(m.list.Filter.Query)
	return true
}

// filterLine renders the filter prompt with the blinking caret.
func (m *Model) filterLine() string {
	prompt := "/ "
	if styles.FilterPrompt != nil {
		prompt = styles.FilterPrompt.Render(prompt)
	}
	query := []rune(m.list.Filter.Query)
	if !m.filtering {
		if len(query) == 0 {
			return ""
		}
		return prompt + theme.Render(styles.Filter, string(query))
	}
	if len(query) == 0 {
		return prompt + m.renderFilterCursor(" ") + theme.Render(styles.FilterPlaceholder, "type to filter entity types")
	}
	pos := m.list.Filter.CursorPos()
	caret := " "
	after := ""
	if pos < len(query) {
		caret = string(query[pos])
		after = string(query[pos+1:])
	}
	return prompt + theme.Render(styles.Filter, string(query[:pos])) + m.renderFilterCursor(caret) + theme.Render(styles.Filter, after)
}

func (m *Model) renderFilterCursor(char string) string {
	m.filterCursor.SetChar(char)
	base := m.filterCursor.TextStyle.Copy().Inline(true)
	if m.filterCursor.Blink {
		return base.Render(char)
	}
	if styles.Cursor != nil {
		return base.Inherit(styles.Cursor.Copy().Inline(true)).Blink(false).Render(char)
	}
	return base.Reverse(true).Render(char)
}
