// Package dispatcher interprets queued messages as state transitions on the
// designated thread.
package dispatcher

import (
	"github.com/atomicstack/staircase-viewer/internal/logging"
	"github.com/atomicstack/staircase-viewer/internal/logging/events"
	"github.com/atomicstack/staircase-viewer/internal/message"
	"github.com/atomicstack/staircase-viewer/internal/render"
	"github.com/atomicstack/staircase-viewer/internal/state"
	"github.com/atomicstack/staircase-viewer/internal/telemetry"
)

// Display receives raw document text for presentation outside the surface.
type Display interface {
	PublishContent(content string)
}

// Result summarises one activation.
type Result struct {
	Batch      int
	Processed  int
	Reschedule bool
}

// Dispatcher drains the shared queue and performs each message's effect. It
// must only be used from the designated thread.
type Dispatcher struct {
	app     *state.App
	surface render.Surface
	display Display
}

func New(app *state.App, surface render.Surface, display Display) *Dispatcher {
	return &Dispatcher{app: app, surface: surface, display: display}
}

// activation tracks per-pass bookkeeping so a self-rescheduling tag is
// re-queued at most once per pass, and not at all while one is pending.
type activation struct {
	Result
	requeued map[message.Tag]bool
}

// Activate processes everything queued at the moment of the call. Chained
// successors run inline, directly after their head, before the next queued
// message.
func (d *Dispatcher) Activate() Result {
	batch := d.app.Queue.Drain()
	act := activation{Result: Result{Batch: len(batch)}}
	for _, msg := range batch {
		d.process(&act, msg.Tag, msg.Payload)
		for _, tag := range msg.Then {
			d.process(&act, tag, nil)
		}
		if msg.Chained() {
			act.Reschedule = true
		}
	}
	telemetry.Activation(d.app.Queue.Len())
	events.Dispatch.Activate(act.Batch, act.Processed, act.Reschedule)
	return act.Result
}

func (d *Dispatcher) process(act *activation, tag message.Tag, payload interface{}) {
	act.Processed++
	if !tag.Known() {
		logging.Logf("unhandled message tag %s", tag)
		events.Dispatch.Unknown(tag.String())
		return
	}
	telemetry.Processed(tag.String())

	switch tag {
	case message.ClearScreen:
		d.surface.Clear(render.Platinum)
	case message.InitEmptyScene:
		d.app.Render.ShouldRender = true
		d.surface.InitScene()
		d.surface.UpdateView()
	case message.InitDemoScene:
		d.app.Render.ShouldRender = true
		d.surface.InitScene()
		d.bindDocument()
	case message.InitStepFile:
		d.bindDocument()
	case message.NextFrame:
		if d.app.Render.ShouldRender {
			d.surface.UpdateView()
		}
		d.requeue(act, message.NextFrame)
	case message.DrawLoadingScreen:
		d.drawLoadingScreen(act)
	case message.DrawErrorScreen:
		text, _ := payload.(string)
		if text == "" {
			text = d.app.LastError()
		}
		d.app.Render.ShouldRender = false
		d.surface.Clear(render.Platinum)
		d.surface.DrawError(text)
	case message.SetStepFileContent:
		content, ok := payload.(string)
		if !ok {
			logging.Logf("SetStepFileContent: unexpected payload %T", payload)
			return
		}
		if d.display != nil {
			d.display.PublishContent(content)
		}
	case message.FitAll:
		d.surface.FitAll()
	}
}

func (d *Dispatcher) bindDocument() {
	doc := d.app.Document()
	if doc == nil {
		logging.Logf("InitStepFile: no document loaded")
		return
	}
	d.surface.BindDocument(doc)
}

// drawLoadingScreen animates the spinner. The loading flag is read now, not
// when the message was queued, so a finished load stops the very next tick.
func (d *Dispatcher) drawLoadingScreen(act *activation) {
	d.surface.Clear(render.Platinum)
	if d.app.Render.ShouldRender {
		program, err := d.surface.CreateProgram(render.VertexShader, render.FragmentShader)
		if err != nil {
			logging.Error(err)
		} else {
			d.app.Render.Program = program
		}
	}
	d.app.Render.ShouldRender = false

	d.surface.DrawIndicator(d.app.Render.Indicator, d.app.Render.Program)
	d.app.Render.Indicator.Phase++

	if d.app.Loading() {
		d.requeue(act, message.DrawLoadingScreen)
		return
	}
	d.app.Render.ShouldRender = true
}

func (d *Dispatcher) requeue(act *activation, tag message.Tag) {
	act.Reschedule = true
	if act.requeued[tag] || d.app.Queue.Count(tag) > 0 {
		return
	}
	if act.requeued == nil {
		act.requeued = make(map[message.Tag]bool, 2)
	}
	act.requeued[tag] = true
	d.app.Queue.Push(message.New(tag))
}
