package state

// MoveCursor shifts the row cursor by delta, clamped to the list.
func (l *List) MoveCursor(delta int) bool {
	if len(l.Items) == 0 {
		l.Cursor = 0
		return false
	}
	old := l.Cursor
	l.Cursor += delta
	if l.Cursor < 0 {
		l.Cursor = 0
	}
	if l.Cursor >= len(l.Items) {
		l.Cursor = len(l.Items) - 1
	}
	return l.Cursor != old
}

// MoveCursorHome moves the cursor to the first row.
func (l *List) MoveCursorHome() bool {
	return l.MoveCursor(-len(l.Items))
}

// MoveCursorEnd moves the cursor to the last row.
func (l *List) MoveCursorEnd() bool {
	return l.MoveCursor(len(l.Items))
}

// MoveCursorPage moves the cursor by whole pages of visible rows.
func (l *List) MoveCursorPage(pages, visible int) bool {
	if visible <= 0 || visible > len(l.Items) {
		visible = len(l.Items)
	}
	return l.MoveCursor(pages * visible)
}

// EnsureCursorVisible adjusts Offset so the cursor lies within visible rows.
func (l *List) EnsureCursorVisible(visible int) {
	if len(l.Items) == 0 || visible <= 0 {
		l.Cursor = 0
		l.Offset = 0
		return
	}
	maxOffset := len(l.Items) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if l.Cursor < l.Offset {
		l.Offset = l.Cursor
	}
	if l.Cursor >= l.Offset+visible {
		l.Offset = l.Cursor - visible + 1
	}
	if l.Offset > maxOffset {
		l.Offset = maxOffset
	}
	if l.Offset < 0 {
		l.Offset = 0
	}
}

// Visible returns the rows inside the viewport.
func (l *List) Visible(visible int) []Row {
	if visible <= 0 || l.Offset >= len(l.Items) {
		return nil
	}
	end := l.Offset + visible
	if end > len(l.Items) {
		end = len(l.Items)
	}
	return l.Items[l.Offset:end]
}
