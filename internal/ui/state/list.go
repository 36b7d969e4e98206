// Package state holds the terminal viewer's list state: the entity-type
// table, its fuzzy filter and its cursor.
package state

import "github.com/atomicstack/staircase-viewer/internal/step"

// Row is one entity type and how often it occurs in the document.
type Row struct {
	Type  string
	Count int
}

// List is a filterable, scrollable list of rows.
type List struct {
	Full   []Row
	Items  []Row
	Filter Filter
	Cursor int
	Offset int

	lastCursor int
}

// NewList returns an empty list.
func NewList() *List {
	return &List{lastCursor: -1}
}

// RowsFor converts a document's entity tally into rows, most frequent first.
func RowsFor(doc *step.Document) []Row {
	if doc == nil {
		return nil
	}
	types := doc.Types()
	rows := make([]Row, len(types))
	for i, tc := range types {
		rows[i] = Row{Type: tc.Type, Count: tc.Count}
	}
	return rows
}

// SetRows replaces the list contents and re-applies the current filter.
func (l *List) SetRows(rows []Row) {
	l.Full = cloneRows(rows)
	l.apply()
}

// Current returns the row under the cursor.
func (l *List) Current() (Row, bool) {
	if l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return Row{}, false
	}
	return l.Items[l.Cursor], true
}

// Total sums the counts of the visible rows.
func (l *List) Total() int {
	total := 0
	for _, r := range l.Items {
		total += r.Count
	}
	return total
}

func cloneRows(rows []Row) []Row {
	dup := make([]Row, len(rows))
	copy(dup, rows)
	return dup
}
