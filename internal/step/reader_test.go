package step

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestReadDemoDocument(t *testing.T) {
	doc, err := NewReader().Read(context.Background(), []byte(Demo()))
	if err != nil {
		t.Fatalf("read demo: %v", err)
	}
	if doc.Name != "staircase.stp" {
		t.Fatalf("expected name staircase.stp, got %q", doc.Name)
	}
	if !strings.HasPrefix(doc.Schema, "AUTOMOTIVE_DESIGN") {
		t.Fatalf("unexpected schema %q", doc.Schema)
	}
	if doc.Description != "Five-tread straight staircase" {
		t.Fatalf("unexpected description %q", doc.Description)
	}
	if doc.Entities != 57 {
		t.Fatalf("expected 57 entities, got %d", doc.Entities)
	}
	if got := doc.Count("CARTESIAN_POINT"); got != 41 {
		t.Fatalf("expected 41 points, got %d", got)
	}
	if len(doc.Points) != 41 {
		t.Fatalf("expected 41 parsed points, got %d", len(doc.Points))
	}
	if !doc.Bounds.Valid || doc.Bounds.Max.Y != 1400 || doc.Bounds.Max.Z != 900 {
		t.Fatalf("unexpected bounds %#v", doc.Bounds)
	}
	types := doc.Types()
	if types[0].Type != "CARTESIAN_POINT" {
		t.Fatalf("expected points first, got %#v", types[0])
	}
}

func TestReadRejectsNonStep(t *testing.T) {
	_, err := NewReader().Read(context.Background(), []byte("solid cube\nendsolid"))
	if !errors.Is(err, ErrNotStep) {
		t.Fatalf("expected ErrNotStep, got %v", err)
	}
}

func TestReadRejectsEmptyData(t *testing.T) {
	src := "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\nENDSEC;\nEND-ISO-10303-21;\n"
	_, err := NewReader().Read(context.Background(), []byte(src))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestReadMalformedRecord(t *testing.T) {
	src := "ISO-10303-21;\nDATA;\nCARTESIAN_POINT('',(0.,0.,0.));\nENDSEC;\n"
	if _, err := NewReader().Read(context.Background(), []byte(src)); err == nil {
		t.Fatal("expected malformed record error")
	}
}

func TestReadHandlesQuotedSemicolonsAndComplexEntities(t *testing.T) {
	src := strings.Join([]string{
		"ISO-10303-21;",
		"HEADER;",
		"FILE_NAME('it''s;odd.stp','',(''),(''),'','','');",
		"ENDSEC;",
		"DATA;",
		"#1=PRODUCT('a;b','c','',());",
		"#2=(LENGTH_UNIT() NAMED_UNIT(*) SI_UNIT(.MILLI.,.METRE.));",
		"ENDSEC;",
		"END-ISO-10303-21;",
	}, "\n")
	doc, err := NewReader().Read(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Name != "it's;odd.stp" {
		t.Fatalf("unexpected name %q", doc.Name)
	}
	if doc.Entities != 2 || doc.Count(complexType) != 1 || doc.Count("PRODUCT") != 1 {
		t.Fatalf("unexpected tallies %#v", doc.Types())
	}
}

func TestReadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader().Read(ctx, []byte(Demo()))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseReportsThroughCallbackOnce(t *testing.T) {
	calls := 0
	NewReader().Parse(context.Background(), []byte("nope"), func(doc *Document, err error) {
		calls++
		if doc != nil || err == nil {
			t.Fatalf("expected failure, got %v / %v", doc, err)
		}
	})
	if calls != 1 {
		t.Fatalf("expected one callback, got %d", calls)
	}
}

func TestClipKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", 39) + "é" + "tail"
	got := clip(s)
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid UTF-8, got %q", got)
	}
	if got != strings.Repeat("a", 39)+"…" {
		t.Fatalf("unexpected clip %q", got)
	}
	if clip("short") != "short" {
		t.Fatalf("expected short strings untouched")
	}
}

func TestReadSkipsByteOrderMark(t *testing.T) {
	doc, err := NewReader().Read(context.Background(), []byte("\uFEFF"+Demo()))
	if err != nil {
		t.Fatalf("expected BOM-prefixed document to parse, got %v", err)
	}
	if doc.Entities != 57 {
		t.Fatalf("expected 57 entities, got %d", doc.Entities)
	}
}
