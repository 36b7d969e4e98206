package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/atomicstack/staircase-viewer/internal/host"
	"github.com/atomicstack/staircase-viewer/internal/logging"
	"github.com/atomicstack/staircase-viewer/internal/logging/events"
	"github.com/atomicstack/staircase-viewer/internal/message"
	"github.com/atomicstack/staircase-viewer/internal/state"
	"github.com/atomicstack/staircase-viewer/internal/step"
	"github.com/atomicstack/staircase-viewer/internal/telemetry"
)

var (
	ErrLoadInProgress = errors.New("backend: a document load is already running")
	ErrEmptyContent   = errors.New("backend: empty document content")
	errNoDocument     = errors.New("parser returned no document")
)

// Parser turns raw document bytes into a document. done is called exactly
// once, with a nil document on failure.
type Parser interface {
	Parse(ctx context.Context, content []byte, done func(*step.Document, error))
}

// Loader runs document parses on worker goroutines and hands the outcome
// back to the designated thread through the shared queue. At most one load
// runs at a time.
type Loader struct {
	app    *state.App
	host   host.Host
	parser Parser
	notify func()

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewLoader wires a loader to the shared state. notify is handed to
// host.RunOnDesignated after every push and must drain the queue.
func NewLoader(app *state.App, h host.Host, parser Parser, notify func()) *Loader {
	return &Loader{app: app, host: h, parser: parser, notify: notify}
}

// Load starts parsing content in the background and returns immediately.
// The outcome is observable only through the shared state and the queue.
func (l *Loader) Load(ctx context.Context, content string) error {
	if content == "" {
		l.reject("empty")
		return ErrEmptyContent
	}
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		l.reject("busy")
		return ErrLoadInProgress
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	l.app.SetContent(content)
	l.host.Spawn(func() {
		defer l.release()
		l.run(ctx, content)
	})
	return nil
}

// Busy reports whether a load is in flight.
func (l *Loader) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// Cancel aborts the in-flight load, if any, and reports whether there was one.
func (l *Loader) Cancel() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return false
	}
	l.cancel()
	return true
}

func (l *Loader) reject(reason string) {
	events.Load.Reject(reason)
	telemetry.Load(telemetry.ResultRejected, 0)
}

func (l *Loader) release() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()
}

func (l *Loader) run(ctx context.Context, content string) {
	start := time.Now()
	events.Load.Start(len(content))

	l.app.SetLoading(true)
	l.publish(message.New(message.DrawLoadingScreen))
	l.publish(message.WithPayload(message.SetStepFileContent, content))

	var once sync.Once
	finished := make(chan struct{})
	complete := func(doc *step.Document, err error) {
		once.Do(func() {
			l.complete(ctx, doc, err, time.Since(start))
			close(finished)
		})
	}

	l.parser.Parse(ctx, []byte(content), complete)

	select {
	case <-finished:
	case <-ctx.Done():
		complete(nil, ctx.Err())
	}
}

func (l *Loader) complete(ctx context.Context, doc *step.Document, err error, elapsed time.Duration) {
	if doc != nil && err == nil {
		l.app.SetDocument(doc)
		l.app.SetLastError("")
		l.app.SetLoading(false)
		telemetry.Load(telemetry.ResultOK, elapsed)
		events.Load.Done(doc.Name, doc.Entities, elapsed)
		logging.Logf("document %q loaded: %d entities in %s", doc.Name, doc.Entities, elapsed)
		l.publish(message.MustChain(
			message.ClearScreen,
			message.ClearScreen,
			message.ClearScreen,
			message.InitStepFile,
			message.NextFrame,
		))
		return
	}

	if ctx.Err() != nil {
		l.app.SetLoading(false)
		telemetry.Load(telemetry.ResultCanceled, elapsed)
		events.Load.Cancel(elapsed)
		logging.Logf("document load cancelled after %s", elapsed)
		l.publish(message.MustChain(message.ClearScreen, message.InitEmptyScene, message.NextFrame))
		return
	}

	if err == nil {
		err = errNoDocument
	}
	err = fmt.Errorf("parse document: %w", err)
	logging.Error(err)
	l.app.SetLastError(err.Error())
	l.app.SetLoading(false)
	telemetry.Load(telemetry.ResultFailed, elapsed)
	events.Load.Fail(err, elapsed)
	l.publish(message.MustChain(message.ClearScreen, message.DrawErrorScreen, message.NextFrame))
}

func (l *Loader) publish(msg message.Message) {
	l.app.Queue.Push(msg)
	events.Queue.Push(msg.String(), l.app.Queue.Len())
	if l.notify != nil {
		l.host.RunOnDesignated(l.notify)
	}
}
