package ui

import (
	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
)

// Harness drives the UI model programmatically for tests. Tasks the viewer
// hands to the designated thread are delivered by Flush instead of a running
// program.
type Harness struct {
	model *Model
}

// NewHarness creates a harness for the provided model. The filter caret is
// made static so no blink timers end up in the command chain.
func NewHarness(model *Model) *Harness {
	if model != nil {
		model.filterCursor.SetMode(cursor.CursorStatic)
	}
	return &Harness{model: model}
}

// Init runs the model's Init command chain.
func (h *Harness) Init() {
	if h.model == nil {
		return
	}
	h.processCmd(h.model.Init())
}

// Send routes a message through the model and executes any returned commands.
func (h *Harness) Send(msg tea.Msg) {
	if h.model == nil {
		return
	}
	mdl, cmd := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	h.processCmd(cmd)
}

// Flush delivers designated-thread tasks until none remain queued, and
// returns how many ran.
func (h *Harness) Flush() int {
	if h.model == nil {
		return 0
	}
	n := 0
	for {
		backlog := h.model.host.Backlog()
		if len(backlog) == 0 {
			return n
		}
		for _, msg := range backlog {
			h.Send(msg)
			n++
		}
	}
}

// Settle waits for background loads to finish and then flushes.
func (h *Harness) Settle() {
	if h.model == nil {
		return
	}
	h.model.host.Wait()
	h.Flush()
}

func (h *Harness) processCmd(cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				h.processCmd(c)
			}
			return
		}
		mdl, next := h.model.Update(msg)
		if updated, ok := mdl.(*Model); ok {
			h.model = updated
		}
		cmd = next
	}
}

// View returns the current view string.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.View()
}

// Model exposes the underlying model.
func (h *Harness) Model() *Model {
	return h.model
}
