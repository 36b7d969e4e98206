package viewer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/staircase-viewer/internal/message"
	"github.com/atomicstack/staircase-viewer/internal/step"
	"github.com/atomicstack/staircase-viewer/internal/testutil"
)

func newViewer(t *testing.T) (*Viewer, *testutil.Host, *testutil.Surface, *testutil.Display) {
	t.Helper()
	h := &testutil.Host{}
	surface := &testutil.Surface{}
	display := &testutil.Display{}
	v, err := New(h, surface, step.NewReader(), Options{Display: display})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v, h, surface, display
}

func TestNewPreconditions(t *testing.T) {
	h := &testutil.Host{}
	surface := &testutil.Surface{}
	parser := step.NewReader()
	cases := map[string]func() (*Viewer, error){
		"host":    func() (*Viewer, error) { return New(nil, surface, parser, Options{}) },
		"surface": func() (*Viewer, error) { return New(h, nil, parser, Options{}) },
		"parser":  func() (*Viewer, error) { return New(h, surface, nil, Options{}) },
		"program": func() (*Viewer, error) {
			return New(h, &testutil.Surface{FailProgram: true}, parser, Options{})
		},
	}
	for name, build := range cases {
		v, err := build()
		if !errors.Is(err, ErrPrecondition) {
			t.Fatalf("%s: expected ErrPrecondition, got %v", name, err)
		}
		if v != nil {
			t.Fatalf("%s: expected no viewer", name)
		}
	}
}

func TestNewKicksFrameLoop(t *testing.T) {
	v, h, _, _ := newViewer(t)
	if !v.State().Render.Program.Valid() {
		t.Fatalf("expected program created at startup")
	}
	if got := v.State().Queue.Count(message.NextFrame); got != 1 {
		t.Fatalf("expected NextFrame queued, got %d", got)
	}
	if h.Pending() != 1 {
		t.Fatalf("expected activation requested, got %d", h.Pending())
	}

	h.Run()
	timers := h.Timers()
	if len(timers) != 1 || timers[0].Delay != DefaultFrameInterval {
		t.Fatalf("expected one frame timer at %s, got %+v", DefaultFrameInterval, timers)
	}
}

func TestFrameTimersCoalesce(t *testing.T) {
	v, h, _, _ := newViewer(t)
	v.InitEmptyScene()
	v.FitAll()
	h.Run()
	if got := len(h.Timers()); got != 1 {
		t.Fatalf("expected one pending frame timer, got %d", got)
	}
	h.Fire()
	if got := len(h.Timers()); got != 1 {
		t.Fatalf("expected loop to keep exactly one timer, got %d", got)
	}
}

func TestInitEmptyScene(t *testing.T) {
	v, h, surface, _ := newViewer(t)
	v.InitEmptyScene()
	h.Run()

	if got := surface.Count("clear"); got != 3 {
		t.Fatalf("expected 3 clears, got %d", got)
	}
	if got := surface.Count("init"); got != 1 {
		t.Fatalf("expected 1 scene init, got %d", got)
	}
	if !v.State().Render.ShouldRender {
		t.Fatalf("expected scene to be render-ready")
	}
}

func TestLoadDocumentEndToEnd(t *testing.T) {
	v, h, surface, display := newViewer(t)
	h.Run()

	if err := v.LoadDocument(context.Background(), DemoDocument()); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	h.Wait()
	h.Step(3)

	doc := v.Document()
	if doc == nil || doc.Name != "staircase.stp" {
		t.Fatalf("expected demo document bound, got %+v", doc)
	}
	if surface.Bound != doc {
		t.Fatalf("expected surface to show the loaded document")
	}
	if surface.Count("indicator") == 0 {
		t.Fatalf("expected at least one loading frame")
	}
	if v.State().Loading() || v.Loading() {
		t.Fatalf("expected load finished")
	}
	if got := display.Contents(); len(got) != 1 || got[0] != DemoDocument() {
		t.Fatalf("expected raw content published once")
	}
	if v.StepFileContent() != DemoDocument() {
		t.Fatalf("expected content retained")
	}
}

func TestLoadDocumentFailureShowsError(t *testing.T) {
	v, h, surface, _ := newViewer(t)

	if err := v.LoadDocument(context.Background(), "not a step file"); err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	h.Wait()
	h.Step(2)

	if v.Document() != nil {
		t.Fatalf("expected no document after failure")
	}
	if !strings.Contains(v.LastError(), step.ErrNotStep.Error()) {
		t.Fatalf("expected parse error recorded, got %q", v.LastError())
	}
	if surface.Count("error") != 1 {
		t.Fatalf("expected error screen drawn")
	}
	if v.State().Queue.Count(message.DrawLoadingScreen) != 0 {
		t.Fatalf("expected spinner loop stopped")
	}
}

func TestDisplaySplashScreen(t *testing.T) {
	v, h, surface, _ := newViewer(t)
	v.DisplaySplashScreen()
	h.Run()
	if surface.Count("splash") != 1 {
		t.Fatalf("expected splash drawn on the designated thread")
	}
	if v.State().Render.ShouldRender {
		t.Fatalf("expected scene rendering paused behind the splash")
	}
}

func TestFitAll(t *testing.T) {
	v, h, surface, _ := newViewer(t)
	v.FitAll()
	h.Run()
	if surface.Count("fit") != 1 {
		t.Fatalf("expected fit all")
	}
}

func TestBootstrapLoadsDemo(t *testing.T) {
	v, h, _, _ := newViewer(t)
	v.Bootstrap(context.Background(), time.Second)

	var found bool
	for _, timer := range h.Timers() {
		if timer.Delay == time.Second {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected bootstrap scheduled after 1s")
	}
	h.Step(1)
	h.Wait()
	h.Step(2)

	if doc := v.Document(); doc == nil || doc.Name != "staircase.stp" {
		t.Fatalf("expected demo loaded by bootstrap, got %+v", doc)
	}
}

func TestBootstrapSkippedAfterCancel(t *testing.T) {
	v, h, _, _ := newViewer(t)
	ctx, cancel := context.WithCancel(context.Background())
	v.Bootstrap(ctx, time.Second)
	cancel()
	h.Step(1)
	h.Wait()
	if v.StepFileContent() != "" {
		t.Fatalf("expected no load after cancellation")
	}
}

func TestVersionAndDemo(t *testing.T) {
	if !strings.Contains(Version(), AppVersion) || !strings.Contains(Version(), step.ReaderVersion) {
		t.Fatalf("unexpected version %q", Version())
	}
	if !strings.HasPrefix(DemoDocument(), "ISO-10303-21") {
		t.Fatalf("expected demo to be a STEP document")
	}
}

func TestStartWithContentLoadsImmediately(t *testing.T) {
	v, h, surface, _ := newViewer(t)
	if err := v.Start(context.Background(), DemoDocument(), time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.Wait()
	h.Run()
	if surface.Count("splash") != 1 {
		t.Fatalf("expected splash before the first load")
	}
	if v.Document() == nil {
		t.Fatalf("expected document loaded without waiting for bootstrap")
	}
	for _, timer := range h.Timers() {
		if timer.Delay == time.Hour {
			t.Fatalf("expected no bootstrap timer when content is given")
		}
	}
}

func TestStartWithoutContentBootstraps(t *testing.T) {
	v, h, _, _ := newViewer(t)
	if err := v.Start(context.Background(), "", 50*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	var found bool
	for _, timer := range h.Timers() {
		if timer.Delay == 50*time.Millisecond {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected bootstrap timer")
	}
}
