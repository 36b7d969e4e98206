package state

import (
	"sync"
	"sync/atomic"

	"github.com/atomicstack/staircase-viewer/internal/message"
	"github.com/atomicstack/staircase-viewer/internal/render"
	"github.com/atomicstack/staircase-viewer/internal/step"
)

// RenderHandles are owned by the designated thread. Workers never touch them.
type RenderHandles struct {
	Program      render.Program
	ShouldRender bool
	Indicator    render.Indicator
}

// App is the state shared by the dispatcher and background loads for one
// viewer session. Construct it once and pass the pointer everywhere.
type App struct {
	Queue  *message.Queue
	Render RenderHandles

	loading  atomic.Bool
	document atomic.Pointer[step.Document]

	mu      sync.Mutex
	content string
	lastErr string
}

// NewApp returns an App with an empty queue and default indicator.
func NewApp() *App {
	return &App{
		Queue:  message.NewQueue(),
		Render: RenderHandles{Indicator: render.DefaultIndicator()},
	}
}

// Loading reports the loading-indicator flag.
func (a *App) Loading() bool {
	return a.loading.Load()
}

// SetLoading sets the loading-indicator flag.
func (a *App) SetLoading(v bool) {
	a.loading.Store(v)
}

// Document returns the current document handle, or nil.
func (a *App) Document() *step.Document {
	return a.document.Load()
}

// SetDocument replaces the current document handle.
func (a *App) SetDocument(doc *step.Document) {
	a.document.Store(doc)
}

// Content returns the raw text of the most recent load request.
func (a *App) Content() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.content
}

// SetContent records the raw text of a load request.
func (a *App) SetContent(content string) {
	a.mu.Lock()
	a.content = content
	a.mu.Unlock()
}

// LastError returns the most recent load failure, if any.
func (a *App) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// SetLastError records a load failure; an empty string clears it.
func (a *App) SetLastError(msg string) {
	a.mu.Lock()
	a.lastErr = msg
	a.mu.Unlock()
}
