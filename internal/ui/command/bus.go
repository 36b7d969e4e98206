// Package command runs viewer actions as Bubble Tea commands.
package command

import (
	"context"

	"github.com/atomicstack/staircase-viewer/internal/logging/events"
	tea "github.com/charmbracelet/bubbletea"
)

// Request encapsulates an action invocation.
type Request struct {
	ID    string
	Label string
	Run   func(ctx context.Context) error
}

// Result reports how a request finished.
type Result struct {
	ID    string
	Label string
	Err   error
}

// Bus coordinates the execution of viewer actions.
type Bus struct {
	ctx context.Context
}

// New initialises a command bus whose actions run under ctx.
func New(ctx context.Context) *Bus {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Bus{ctx: ctx}
}

// Execute wraps an action into a Bubble Tea command while emitting trace
// logs. The action runs off the event loop.
func (b *Bus) Execute(req Request) tea.Cmd {
	events.Command.Queue(req.ID, req.Label)
	return func() tea.Msg {
		if req.Run == nil {
			events.Command.Skip(req.ID, req.Label)
			return nil
		}
		err := req.Run(b.ctx)
		events.Command.Result(req.ID, req.Label, err)
		return Result{ID: req.ID, Label: req.Label, Err: err}
	}
}
