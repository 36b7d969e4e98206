package state

import (
	"reflect"
	"testing"

	"github.com/atomicstack/staircase-viewer/internal/step"
)

func newTestList(types ...string) *List {
	rows := make([]Row, len(types))
	for i, t := range types {
		rows[i] = Row{Type: t, Count: len(types) - i}
	}
	l := NewList()
	l.SetRows(rows)
	return l
}

func typesOf(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Type
	}
	return out
}

func TestRowsForDocument(t *testing.T) {
	if RowsFor(nil) != nil {
		t.Fatalf("expected no rows for nil document")
	}
	doc, err := step.NewReader().Read(t.Context(), []byte(step.Demo()))
	if err != nil {
		t.Fatalf("read demo: %v", err)
	}
	rows := RowsFor(doc)
	if len(rows) == 0 || rows[0].Type != "CARTESIAN_POINT" {
		t.Fatalf("expected CARTESIAN_POINT first, got %+v", rows)
	}
	l := NewList()
	l.SetRows(rows)
	if l.Total() != doc.Entities {
		t.Fatalf("expected total %d, got %d", doc.Entities, l.Total())
	}
}

func TestSetFilterJumpsAndRestoresCursor(t *testing.T) {
	l := newTestList("CARTESIAN_POINT", "DIRECTION", "POLY_LOOP")
	l.Cursor = 2

	l.SetFilter("dir", 3)
	if got := typesOf(l.Items); !reflect.DeepEqual(got, []string{"DIRECTION"}) {
		t.Fatalf("expected only DIRECTION, got %v", got)
	}
	if l.Cursor != 0 {
		t.Fatalf("expected cursor on match, got %d", l.Cursor)
	}

	if !l.ClearFilter() {
		t.Fatalf("expected clear to report a change")
	}
	if l.Cursor != 2 {
		t.Fatalf("expected cursor restored to 2, got %d", l.Cursor)
	}
	if l.ClearFilter() {
		t.Fatalf("expected second clear to be a no-op")
	}
}

func TestFilterEditing(t *testing.T) {
	l := newTestList("alpha")

	if !l.InsertFilterText("ab") {
		t.Fatal("expected insert to succeed")
	}
	l.Filter.Pos = 1
	l.InsertFilterText("z")
	if l.Filter.Query != "azb" || l.Filter.Pos != 2 {
		t.Fatalf("unexpected filter %q/%d", l.Filter.Query, l.Filter.Pos)
	}
	if !l.DeleteFilterRuneBackward() || l.Filter.Query != "ab" || l.Filter.Pos != 1 {
		t.Fatalf("unexpected filter after delete %q/%d", l.Filter.Query, l.Filter.Pos)
	}

	l.SetFilter("abc def", len("abc def"))
	if !l.DeleteFilterWordBackward() || l.Filter.Query != "abc " {
		t.Fatalf("expected trailing word removed, got %q", l.Filter.Query)
	}

	l.SetFilter("abc", 0)
	if l.DeleteFilterRuneBackward() || l.DeleteFilterWordBackward() {
		t.Fatal("expected deletes at start to fail")
	}
	if l.InsertFilterText("") {
		t.Fatal("expected empty insert to fail")
	}
}

func TestFilterCursorMovement(t *testing.T) {
	l := newTestList("x")
	l.SetFilter("one two", 7)

	if !l.MoveFilterCursorWordBackward() || l.Filter.Pos != 4 {
		t.Fatalf("expected word start 4, got %d", l.Filter.Pos)
	}
	if !l.MoveFilterCursor(-10) || l.Filter.Pos != 0 {
		t.Fatalf("expected clamp to 0, got %d", l.Filter.Pos)
	}
	if l.MoveFilterCursor(-1) {
		t.Fatalf("expected no movement at start")
	}
	if !l.MoveFilterCursor(100) || l.Filter.Pos != 7 {
		t.Fatalf("expected clamp to end, got %d", l.Filter.Pos)
	}
}

func TestFilterRows(t *testing.T) {
	rows := []Row{{Type: "FACE_OUTER_BOUND"}, {Type: "POLY_LOOP"}}
	if got := typesOf(FilterRows(rows, "  ")); !reflect.DeepEqual(got, []string{"FACE_OUTER_BOUND", "POLY_LOOP"}) {
		t.Fatalf("expected all rows for blank query, got %v", got)
	}
	if got := typesOf(FilterRows(rows, "loop")); !reflect.DeepEqual(got, []string{"POLY_LOOP"}) {
		t.Fatalf("expected POLY_LOOP, got %v", got)
	}
	if got := FilterRows(rows, "zzz"); len(got) != 0 {
		t.Fatalf("expected no rows, got %v", got)
	}
}

func TestBestMatchIndex(t *testing.T) {
	rows := []Row{{Type: "PRODUCT_CONTEXT"}, {Type: "PRODUCT"}, {Type: "POLY_LOOP"}}
	if BestMatchIndex(nil, "x") != -1 {
		t.Fatalf("expected -1 for no rows")
	}
	if got := BestMatchIndex(rows, "product"); got != 1 {
		t.Fatalf("expected exact match index 1, got %d", got)
	}
	if got := BestMatchIndex(rows, "poly"); got != 2 {
		t.Fatalf("expected prefix match index 2, got %d", got)
	}
}

func TestCursorMovement(t *testing.T) {
	l := newTestList("a", "b", "c", "d", "e")

	if !l.MoveCursorEnd() || l.Cursor != 4 {
		t.Fatalf("expected cursor at end, got %d", l.Cursor)
	}
	if !l.MoveCursorPage(-1, 2) || l.Cursor != 2 {
		t.Fatalf("expected page up to 2, got %d", l.Cursor)
	}
	if !l.MoveCursorHome() || l.Cursor != 0 {
		t.Fatalf("expected cursor home, got %d", l.Cursor)
	}
	if l.MoveCursor(-1) {
		t.Fatalf("expected no movement above first row")
	}

	empty := NewList()
	empty.Cursor = 3
	if empty.MoveCursorEnd() || empty.Cursor != 0 {
		t.Fatalf("expected empty list cursor reset")
	}
	if _, ok := empty.Current(); ok {
		t.Fatalf("expected no current row")
	}
}

func TestEnsureCursorVisible(t *testing.T) {
	l := newTestList("a", "b", "c", "d", "e")
	l.Cursor = 4
	l.EnsureCursorVisible(2)
	if l.Offset != 3 {
		t.Fatalf("expected offset 3, got %d", l.Offset)
	}
	if got := typesOf(l.Visible(2)); !reflect.DeepEqual(got, []string{"d", "e"}) {
		t.Fatalf("unexpected visible rows %v", got)
	}
	l.Cursor = 0
	l.EnsureCursorVisible(2)
	if l.Offset != 0 {
		t.Fatalf("expected offset 0, got %d", l.Offset)
	}
	if row, ok := l.Current(); !ok || row.Type != "a" {
		t.Fatalf("expected current row a, got %+v", row)
	}
}
