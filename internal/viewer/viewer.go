// Package viewer is the embedding surface of the control layer. It owns the
// shared state for one session and exposes entry points that are safe to call
// from any goroutine; all rendering happens on the host's designated thread.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atomicstack/staircase-viewer/internal/backend"
	"github.com/atomicstack/staircase-viewer/internal/dispatcher"
	"github.com/atomicstack/staircase-viewer/internal/host"
	"github.com/atomicstack/staircase-viewer/internal/logging"
	"github.com/atomicstack/staircase-viewer/internal/logging/events"
	"github.com/atomicstack/staircase-viewer/internal/message"
	"github.com/atomicstack/staircase-viewer/internal/render"
	"github.com/atomicstack/staircase-viewer/internal/state"
	"github.com/atomicstack/staircase-viewer/internal/step"
)

// AppVersion is the viewer release.
const AppVersion = "0.3.0"

// DefaultFrameInterval paces the self-rescheduling loop at ~60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// ErrPrecondition reports that a session could not be created.
var ErrPrecondition = errors.New("viewer: precondition failed")

// Options tune a session. The zero value is usable.
type Options struct {
	FrameInterval time.Duration
	Display       dispatcher.Display
}

// Viewer is one viewer session.
type Viewer struct {
	app        *state.App
	host       host.Host
	surface    render.Surface
	dispatcher *dispatcher.Dispatcher
	loader     *backend.Loader

	frameInterval time.Duration
	// frameTimer is touched only on the designated thread.
	frameTimer bool
}

// New creates a session. It must be called on the designated thread before
// the host starts servicing tasks, since it compiles the flat-colour program
// on the surface.
func New(h host.Host, surface render.Surface, parser backend.Parser, opts Options) (*Viewer, error) {
	switch {
	case h == nil:
		return nil, fmt.Errorf("%w: no host runtime", ErrPrecondition)
	case surface == nil:
		return nil, fmt.Errorf("%w: no rendering surface", ErrPrecondition)
	case parser == nil:
		return nil, fmt.Errorf("%w: no document parser", ErrPrecondition)
	}
	program, err := surface.CreateProgram(render.VertexShader, render.FragmentShader)
	if err != nil {
		return nil, fmt.Errorf("%w: create program: %v", ErrPrecondition, err)
	}

	interval := opts.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	app := state.NewApp()
	app.Render.Program = program

	v := &Viewer{
		app:           app,
		host:          h,
		surface:       surface,
		dispatcher:    dispatcher.New(app, surface, opts.Display),
		frameInterval: interval,
	}
	v.loader = backend.NewLoader(app, h, parser, v.HandleMessages)

	v.push(message.New(message.NextFrame))
	return v, nil
}

// State exposes the shared state for read-only inspection by displays.
func (v *Viewer) State() *state.App {
	return v.app
}

// HandleMessages runs one dispatcher activation. It must run on the
// designated thread; producers reach it through host.RunOnDesignated.
func (v *Viewer) HandleMessages() {
	res := v.dispatcher.Activate()
	if !res.Reschedule || v.frameTimer {
		return
	}
	v.frameTimer = true
	events.Dispatch.Schedule(v.frameInterval)
	v.host.ScheduleAfter(v.frameInterval, v.frame)
}

func (v *Viewer) frame() {
	v.frameTimer = false
	v.HandleMessages()
}

// InitEmptyScene resets the surface to an empty scene.
func (v *Viewer) InitEmptyScene() {
	v.push(message.MustChain(
		message.ClearScreen,
		message.ClearScreen,
		message.ClearScreen,
		message.InitEmptyScene,
		message.NextFrame,
	))
}

// InitDemoScene resets the surface and binds the current document.
func (v *Viewer) InitDemoScene() {
	v.push(message.MustChain(message.ClearScreen, message.InitDemoScene, message.NextFrame))
}

// LoadDocument parses content in the background and returns immediately.
// The only errors are refusals to start: empty content or a load already
// in flight.
func (v *Viewer) LoadDocument(ctx context.Context, content string) error {
	return v.loader.Load(ctx, content)
}

// CancelLoad aborts the in-flight load and reports whether there was one.
func (v *Viewer) CancelLoad() bool {
	return v.loader.Cancel()
}

// Loading reports whether a document load is in flight.
func (v *Viewer) Loading() bool {
	return v.loader.Busy()
}

// DisplaySplashScreen draws the checkerboard splash.
func (v *Viewer) DisplaySplashScreen() {
	v.host.RunOnDesignated(func() {
		v.app.Render.ShouldRender = false
		v.surface.DrawSplash(v.app.Render.Program)
	})
}

// FitAll frames the whole scene.
func (v *Viewer) FitAll() {
	v.push(message.New(message.FitAll))
}

// Bootstrap loads the embedded demo after delay, for sessions started
// without a document.
func (v *Viewer) Bootstrap(ctx context.Context, delay time.Duration) {
	v.host.ScheduleAfter(delay, func() {
		if ctx.Err() != nil {
			return
		}
		if err := v.LoadDocument(ctx, step.Demo()); err != nil {
			logging.Error(fmt.Errorf("bootstrap: %w", err))
		}
	})
}

// Start shows the splash screen, then loads content, or the demo after delay
// when content is empty.
func (v *Viewer) Start(ctx context.Context, content string, delay time.Duration) error {
	v.DisplaySplashScreen()
	if content != "" {
		return v.LoadDocument(ctx, content)
	}
	v.Bootstrap(ctx, delay)
	return nil
}

// StepFileContent returns the content of the most recent load request.
func (v *Viewer) StepFileContent() string {
	return v.app.Content()
}

// Document returns the currently bound document, or nil.
func (v *Viewer) Document() *step.Document {
	return v.app.Document()
}

// LastError returns the text of the most recent load failure.
func (v *Viewer) LastError() string {
	return v.app.LastError()
}

// Version identifies the viewer and its document reader.
func Version() string {
	return fmt.Sprintf("staircase-viewer %s / step reader %s", AppVersion, step.ReaderVersion)
}

// DemoDocument returns the embedded demo document.
func DemoDocument() string {
	return step.Demo()
}

func (v *Viewer) push(msg message.Message) {
	v.app.Queue.Push(msg)
	events.Queue.Push(msg.String(), v.app.Queue.Len())
	v.host.RunOnDesignated(v.HandleMessages)
}
