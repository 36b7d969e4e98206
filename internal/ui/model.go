package ui

import (
	"context"
	"reflect"
	"time"

	"github.com/atomicstack/staircase-viewer/internal/backend"
	"github.com/atomicstack/staircase-viewer/internal/render"
	"github.com/atomicstack/staircase-viewer/internal/step"
	"github.com/atomicstack/staircase-viewer/internal/theme"
	"github.com/atomicstack/staircase-viewer/internal/ui/command"
	uistate "github.com/atomicstack/staircase-viewer/internal/ui/state"
	"github.com/atomicstack/staircase-viewer/internal/viewer"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Options configure the terminal viewer.
type Options struct {
	SurfaceWidth   int
	SurfaceHeight  int
	FrameInterval  time.Duration
	BootstrapDelay time.Duration
	FilePath       string
	Content        string
	Watcher        *backend.Watcher
}

// Model implements the Bubble Tea model for the terminal viewer.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	host    *Host
	raster  *render.Raster
	viewer  *viewer.Viewer
	bus     *command.Bus
	watcher *backend.Watcher

	filePath       string
	initial        string
	bootstrapDelay time.Duration

	width  int
	height int

	spinner      spinner.Model
	content      viewport.Model
	list         *uistate.List
	filtering    bool
	filterCursor cursor.Model
	cursorDirty  bool

	boundDoc   *step.Document
	errMsg     string
	infoMsg    string
	infoExpire time.Time

	preview      []string
	previewFrame uint64
	previewSize  [2]int

	handlers map[reflect.Type]msgHandler
}

// NewModel creates the viewer session and the model that hosts it. It must
// be called on the goroutine that will run the Bubble Tea program.
func NewModel(opts Options) (*Model, error) {
	ctx, cancel := context.WithCancel(context.Background())
	raster := render.NewRaster(opts.SurfaceWidth, opts.SurfaceHeight)
	h := NewHost()
	m := &Model{
		ctx:            ctx,
		cancel:         cancel,
		host:           h,
		raster:         raster,
		bus:            command.New(ctx),
		watcher:        opts.Watcher,
		filePath:       opts.FilePath,
		initial:        opts.Content,
		bootstrapDelay: opts.BootstrapDelay,
		spinner:        spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(*styles.Spinner)),
		content:        viewport.New(0, 0),
		list:           uistate.NewList(),
	}
	v, err := viewer.New(h, raster, step.NewReader(), viewer.Options{
		FrameInterval: opts.FrameInterval,
		Display:       m,
	})
	if err != nil {
		cancel()
		_ = raster.Close()
		return nil, err
	}
	m.viewer = v

	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = styles.Cursor.Copy()
	}
	if styles.Filter != nil {
		c.TextStyle = styles.Filter.Copy()
	}
	c.SetChar(" ")
	m.filterCursor = c
	m.registerHandlers()
	m.layout()
	return m, nil
}

// Host returns the designated-thread bridge so callers can attach a program.
func (m *Model) Host() *Host {
	return m.host
}

// Viewer exposes the session, mainly for tests.
func (m *Model) Viewer() *viewer.Viewer {
	return m.viewer
}

// Raster exposes the rendering surface.
func (m *Model) Raster() *render.Raster {
	return m.raster
}

// Close cancels outstanding work and releases the surface.
func (m *Model) Close() error {
	m.cancel()
	m.viewer.CancelLoad()
	m.host.Wait()
	m.host.Close()
	return m.raster.Close()
}

// PublishContent receives raw document text from the dispatcher. It runs on
// the event loop.
func (m *Model) PublishContent(content string) {
	m.content.SetContent(content)
	m.content.GotoTop()
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	if err := m.viewer.Start(m.ctx, m.initial, m.bootstrapDelay); err != nil {
		m.errMsg = err.Error()
	}
	cmds := []tea.Cmd{}
	if m.watcher != nil {
		cmds = append(cmds, waitForBackendEvent(m.watcher))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if m.filtering {
		if cmd := m.updateFilterCursorModel(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	m.syncDocument()
	return m, m.finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(designatedMsg{}):     m.handleDesignatedMsg,
		reflect.TypeOf(backendEventMsg{}):   m.handleBackendEventMsg,
		reflect.TypeOf(backendDoneMsg{}):    m.handleBackendDoneMsg,
		reflect.TypeOf(command.Result{}):    m.handleCommandResult,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if m.cursorDirty {
		m.cursorDirty = false
		m.filterCursor.Blink = false
		if cmd := m.filterCursor.BlinkCmd(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleDesignatedMsg(msg tea.Msg) tea.Cmd {
	if task, ok := msg.(designatedMsg); ok && task.fn != nil {
		task.fn()
	}
	return nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	size, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	m.width = size.Width
	m.height = size.Height
	m.layout()
	return nil
}

func (m *Model) handleCommandResult(msg tea.Msg) tea.Cmd {
	res, ok := msg.(command.Result)
	if !ok {
		return nil
	}
	if res.Err != nil {
		m.errMsg = res.Err.Error()
		return nil
	}
	m.errMsg = ""
	m.setInfo(res.Label)
	return nil
}

// syncDocument refreshes the entity table when the viewer binds a new
// document.
func (m *Model) syncDocument() {
	doc := m.viewer.Document()
	if doc == m.boundDoc {
		return
	}
	m.boundDoc = doc
	m.list.SetRows(uistate.RowsFor(doc))
	m.layout()
}

func (m *Model) setInfo(text string) {
	m.infoMsg = text
	m.infoExpire = time.Now().Add(3 * time.Second)
}

func (m *Model) currentInfo() string {
	if m.infoMsg == "" || time.Now().After(m.infoExpire) {
		return ""
	}
	return m.infoMsg
}
