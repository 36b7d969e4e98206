package state

import (
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Filter is a single-line query with a rune cursor.
type Filter struct {
	Query string
	Pos   int
}

func (f Filter) runes() []rune {
	return []rune(f.Query)
}

// CursorPos returns the cursor clamped to the query.
func (f Filter) CursorPos() int {
	n := len(f.runes())
	switch {
	case f.Pos < 0:
		return 0
	case f.Pos > n:
		return n
	}
	return f.Pos
}

// wordStart returns the index of the start of the word before pos.
func wordStart(runes []rune, pos int) int {
	i := pos
	for i > 0 && unicode.IsSpace(runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(runes[i-1]) {
		i--
	}
	return i
}

// SetFilter replaces the query, moves the filter cursor and re-filters.
// The row cursor jumps to the best match while a query is active and
// returns to where it was once the query is cleared.
func (l *List) SetFilter(query string, pos int) {
	before := strings.TrimSpace(l.Filter.Query)
	after := strings.TrimSpace(query)
	l.Filter = Filter{Query: query, Pos: pos}
	l.Filter.Pos = l.Filter.CursorPos()

	switch {
	case after != "" && before == "":
		l.lastCursor = l.Cursor
		l.Cursor = 0
	case after != "":
		l.Cursor = 0
	}
	l.apply()

	if after != "" {
		if idx := BestMatchIndex(l.Items, after); idx >= 0 {
			l.Cursor = idx
		}
		return
	}
	if before != "" {
		if l.lastCursor >= 0 && l.lastCursor < len(l.Items) {
			l.Cursor = l.lastCursor
		}
		l.lastCursor = -1
	}
}

// ClearFilter drops the query. It reports whether there was one.
func (l *List) ClearFilter() bool {
	if l.Filter.Query == "" {
		return false
	}
	l.SetFilter("", 0)
	return true
}

// InsertFilterText inserts text at the filter cursor.
func (l *List) InsertFilterText(text string) bool {
	insert := []rune(text)
	if len(insert) == 0 {
		return false
	}
	runes := l.Filter.runes()
	pos := l.Filter.CursorPos()
	updated := make([]rune, 0, len(runes)+len(insert))
	updated = append(updated, runes[:pos]...)
	updated = append(updated, insert...)
	updated = append(updated, runes[pos:]...)
	l.SetFilter(string(updated), pos+len(insert))
	return true
}

// DeleteFilterRuneBackward removes the rune before the filter cursor.
func (l *List) DeleteFilterRuneBackward() bool {
	runes := l.Filter.runes()
	pos := l.Filter.CursorPos()
	if pos == 0 {
		return false
	}
	updated := append(runes[:pos-1:pos-1], runes[pos:]...)
	l.SetFilter(string(updated), pos-1)
	return true
}

// DeleteFilterWordBackward removes the word before the filter cursor.
func (l *List) DeleteFilterWordBackward() bool {
	runes := l.Filter.runes()
	pos := l.Filter.CursorPos()
	if pos == 0 {
		return false
	}
	start := wordStart(runes, pos)
	updated := append(runes[:start:start], runes[pos:]...)
	l.SetFilter(string(updated), start)
	return true
}

// MoveFilterCursor shifts the filter cursor by delta runes.
func (l *List) MoveFilterCursor(delta int) bool {
	before := l.Filter.CursorPos()
	l.Filter.Pos = before + delta
	l.Filter.Pos = l.Filter.CursorPos()
	return l.Filter.Pos != before
}

// MoveFilterCursorWordBackward moves the filter cursor to the previous word.
func (l *List) MoveFilterCursorWordBackward() bool {
	pos := l.Filter.CursorPos()
	start := wordStart(l.Filter.runes(), pos)
	l.Filter.Pos = start
	return start != pos
}

func (l *List) apply() {
	l.Items = FilterRows(l.Full, l.Filter.Query)
	if len(l.Items) == 0 {
		l.Cursor = 0
		l.Offset = 0
		return
	}
	if l.Cursor < 0 {
		l.Cursor = 0
	}
	if l.Cursor >= len(l.Items) {
		l.Cursor = len(l.Items) - 1
	}
	if l.Offset > len(l.Items)-1 {
		l.Offset = 0
	}
}

// FilterRows returns the rows whose type fuzzily matches query, in their
// original order. Substring matching is the fallback when nothing ranks.
func FilterRows(rows []Row, query string) []Row {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return cloneRows(rows)
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Type
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, names)
	if len(ranks) > 0 {
		keep := make(map[int]bool, len(ranks))
		for _, rank := range ranks {
			keep[rank.OriginalIndex] = true
		}
		out := make([]Row, 0, len(keep))
		for i, r := range rows {
			if keep[i] {
				out = append(out, r)
			}
		}
		return out
	}
	lower := strings.ToLower(trimmed)
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Type), lower) {
			out = append(out, r)
		}
	}
	return out
}

// BestMatchIndex picks the row the cursor should land on for query: an exact
// match, then a prefix, then the closest fuzzy rank.
func BestMatchIndex(rows []Row, query string) int {
	if len(rows) == 0 {
		return -1
	}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return 0
	}
	for i, r := range rows {
		if strings.EqualFold(r.Type, trimmed) {
			return i
		}
	}
	lower := strings.ToLower(trimmed)
	for i, r := range rows {
		if strings.HasPrefix(strings.ToLower(r.Type), lower) {
			return i
		}
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Type
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, names)
	if len(ranks) == 0 {
		return 0
	}
	best := ranks[0]
	for _, rank := range ranks[1:] {
		if rank.Distance < best.Distance ||
			(rank.Distance == best.Distance && rank.OriginalIndex < best.OriginalIndex) {
			best = rank
		}
	}
	return best.OriginalIndex
}
