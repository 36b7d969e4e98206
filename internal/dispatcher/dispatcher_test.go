package dispatcher

import (
	"reflect"
	"testing"

	"github.com/atomicstack/staircase-viewer/internal/message"
	"github.com/atomicstack/staircase-viewer/internal/state"
	"github.com/atomicstack/staircase-viewer/internal/step"
	"github.com/atomicstack/staircase-viewer/internal/testutil"
)

func newDispatcher() (*Dispatcher, *state.App, *testutil.Surface, *testutil.Display) {
	app := state.NewApp()
	surface := &testutil.Surface{}
	display := &testutil.Display{}
	return New(app, surface, display), app, surface, display
}

func TestChainProcessedInOneActivation(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.Queue.Push(message.MustChain(message.ClearScreen, message.ClearScreen, message.InitEmptyScene, message.NextFrame))

	res := d.Activate()

	if res.Batch != 1 || res.Processed != 4 {
		t.Fatalf("expected batch=1 processed=4, got %+v", res)
	}
	if !res.Reschedule {
		t.Fatalf("expected reschedule after a chained message")
	}
	if got := surface.Count("clear"); got != 2 {
		t.Fatalf("expected 2 clears, got %d", got)
	}
	if got := surface.Count("init"); got != 1 {
		t.Fatalf("expected 1 scene init, got %d", got)
	}
	if got := app.Queue.Count(message.NextFrame); got != 1 {
		t.Fatalf("expected NextFrame queued after activation, got %d", got)
	}
	if app.Queue.Len() != 1 {
		t.Fatalf("expected only NextFrame left, got %d messages", app.Queue.Len())
	}
	if !app.Render.ShouldRender {
		t.Fatalf("expected empty scene to enable rendering")
	}
}

func TestChainTailRunsBeforeNextQueuedMessage(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.Queue.Push(message.MustChain(message.ClearScreen, message.FitAll))
	app.Queue.Push(message.New(message.InitEmptyScene))

	d.Activate()

	want := []string{"clear", "fit", "init", "update"}
	if got := surface.Calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
}

func TestLoadingLoopStopsWhenFlagClear(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.Queue.Push(message.New(message.DrawLoadingScreen))

	res := d.Activate()

	if res.Reschedule {
		t.Fatalf("expected no reschedule once loading finished")
	}
	if app.Queue.Count(message.DrawLoadingScreen) != 0 {
		t.Fatalf("expected DrawLoadingScreen not to re-queue")
	}
	if surface.Count("indicator") != 1 {
		t.Fatalf("expected one indicator frame")
	}
	if !app.Render.ShouldRender {
		t.Fatalf("expected rendering restored after the spinner stops")
	}
}

func TestLoadingLoopLiveness(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.SetLoading(true)
	app.Queue.Push(message.New(message.DrawLoadingScreen))

	for i := 0; i < 5; i++ {
		res := d.Activate()
		if !res.Reschedule {
			t.Fatalf("activation %d: expected reschedule while loading", i)
		}
		if got := app.Queue.Count(message.DrawLoadingScreen); got != 1 {
			t.Fatalf("activation %d: expected exactly one DrawLoadingScreen queued, got %d", i, got)
		}
	}
	if got := len(surface.Indicators); got != 5 {
		t.Fatalf("expected 5 indicator frames, got %d", got)
	}
	for i, p := range surface.Indicators {
		if p.Phase != i {
			t.Fatalf("frame %d drawn with phase %d", i, p.Phase)
		}
	}

	app.SetLoading(false)
	d.Activate()
	if app.Queue.Count(message.DrawLoadingScreen) != 0 {
		t.Fatalf("expected loop to stop after flag cleared")
	}
}

func TestLoadingLoopDeduplicatesWithinActivation(t *testing.T) {
	d, app, _, _ := newDispatcher()
	app.SetLoading(true)
	app.Queue.Push(message.New(message.DrawLoadingScreen))
	app.Queue.Push(message.New(message.DrawLoadingScreen))

	d.Activate()

	if got := app.Queue.Count(message.DrawLoadingScreen); got != 1 {
		t.Fatalf("expected duplicate loops to merge, got %d queued", got)
	}
}

func TestLoadingScreenRecreatesProgram(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.Render.ShouldRender = true
	app.SetLoading(true)
	app.Queue.Push(message.New(message.DrawLoadingScreen))

	d.Activate()
	if surface.Count("program") != 1 {
		t.Fatalf("expected program re-created on first loading frame")
	}
	if !app.Render.Program.Valid() {
		t.Fatalf("expected program handle stored")
	}
	if app.Render.ShouldRender {
		t.Fatalf("expected rendering suspended while loading")
	}

	d.Activate()
	if surface.Count("program") != 1 {
		t.Fatalf("expected program created only once per load")
	}
}

func TestLoadingScreenKeepsProgramOnFailure(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	surface.FailProgram = true
	app.Render.ShouldRender = true
	app.Queue.Push(message.New(message.DrawLoadingScreen))

	d.Activate()

	if app.Render.Program.Valid() {
		t.Fatalf("expected no program after failed creation")
	}
	if surface.Count("indicator") != 1 {
		t.Fatalf("expected indicator drawn despite program failure")
	}
}

func TestNextFrameRequeuesOnce(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.Queue.Push(message.New(message.NextFrame))
	app.Queue.Push(message.MustChain(message.ClearScreen, message.NextFrame))

	res := d.Activate()

	if !res.Reschedule {
		t.Fatalf("expected NextFrame to reschedule")
	}
	if got := app.Queue.Count(message.NextFrame); got != 1 {
		t.Fatalf("expected a single frame loop, got %d", got)
	}
	if surface.Count("update") != 0 {
		t.Fatalf("expected no view update before a scene exists")
	}

	app.Render.ShouldRender = true
	d.Activate()
	if surface.Count("update") != 1 {
		t.Fatalf("expected view updated once rendering is enabled")
	}
}

func TestInitStepFileBindsDocument(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	doc := &step.Document{Name: "part.stp"}
	app.SetDocument(doc)
	app.Queue.Push(message.New(message.InitStepFile))

	d.Activate()

	if surface.Bound != doc {
		t.Fatalf("expected document bound to surface")
	}
}

func TestInitStepFileWithoutDocument(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.Queue.Push(message.New(message.InitStepFile))

	d.Activate()

	if surface.Count("bind") != 0 {
		t.Fatalf("expected nothing bound without a document")
	}
}

func TestInitDemoScene(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.SetDocument(&step.Document{Name: "demo"})
	app.Queue.Push(message.New(message.InitDemoScene))

	d.Activate()

	want := []string{"init", "bind:demo"}
	if got := surface.Calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	if !app.Render.ShouldRender {
		t.Fatalf("expected rendering enabled")
	}
}

func TestDrawErrorScreen(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.Render.ShouldRender = true
	app.SetLastError("bad header")
	app.Queue.Push(message.New(message.DrawErrorScreen))
	app.Queue.Push(message.WithPayload(message.DrawErrorScreen, "explicit"))

	d.Activate()

	if surface.Count("error") != 2 {
		t.Fatalf("expected two error frames")
	}
	if surface.LastError != "explicit" {
		t.Fatalf("expected payload to win over last error, got %q", surface.LastError)
	}
	if app.Render.ShouldRender {
		t.Fatalf("expected rendering suspended on the error screen")
	}
}

func TestSetStepFileContentPublishes(t *testing.T) {
	d, app, _, display := newDispatcher()
	app.Queue.Push(message.WithPayload(message.SetStepFileContent, "ISO-10303-21;"))
	app.Queue.Push(message.WithPayload(message.SetStepFileContent, 42))

	d.Activate()

	want := []string{"ISO-10303-21;"}
	if got := display.Contents(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v published, got %v", want, got)
	}
}

func TestUnknownTagIgnored(t *testing.T) {
	d, app, surface, _ := newDispatcher()
	app.Queue.Push(message.New(message.Tag(99)))
	app.Queue.Push(message.New(message.FitAll))

	res := d.Activate()

	if res.Processed != 2 {
		t.Fatalf("expected both messages consumed, got %d", res.Processed)
	}
	if res.Reschedule {
		t.Fatalf("expected unknown tag not to reschedule")
	}
	if surface.Count("fit") != 1 {
		t.Fatalf("expected processing to continue past unknown tag")
	}
}

func TestEmptyQueue(t *testing.T) {
	d, _, surface, _ := newDispatcher()
	res := d.Activate()
	if res != (Result{}) {
		t.Fatalf("expected zero result, got %+v", res)
	}
	if len(surface.Calls()) != 0 {
		t.Fatalf("expected no surface calls")
	}
}

// pushingDisplay queues a frame of its own while the content is published,
// the way a second producer would mid-activation.
type pushingDisplay struct {
	app *state.App
}

func (p pushingDisplay) PublishContent(string) {
	p.app.Queue.Push(message.New(message.NextFrame))
}

func TestNextFrameNotDuplicatedWhenAlreadyPending(t *testing.T) {
	app := state.NewApp()
	d := New(app, &testutil.Surface{}, pushingDisplay{app: app})
	app.Queue.Push(message.Message{
		Tag:     message.SetStepFileContent,
		Payload: "ISO-10303-21;",
		Then:    []message.Tag{message.NextFrame},
	})

	res := d.Activate()

	if !res.Reschedule {
		t.Fatalf("expected reschedule")
	}
	if got := app.Queue.Count(message.NextFrame); got != 1 {
		t.Fatalf("expected a single pending frame, got %d", got)
	}
}

func TestUnknownTagNeverReachesSurface(t *testing.T) {
	d, app, surface, display := newDispatcher()
	app.Queue.Push(message.Message{Tag: message.Tag(99), Payload: "x", Then: []message.Tag{message.Tag(100)}})

	d.Activate()

	if len(surface.Calls()) != 0 || len(display.Contents()) != 0 {
		t.Fatalf("expected unknown tags to have no effect, got %v", surface.Calls())
	}
}
