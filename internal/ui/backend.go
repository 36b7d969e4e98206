package ui

import (
	"context"
	"fmt"
	"os"

	"github.com/atomicstack/staircase-viewer/internal/backend"
	"github.com/atomicstack/staircase-viewer/internal/logging/events"
	"github.com/atomicstack/staircase-viewer/internal/ui/command"
	"github.com/atomicstack/staircase-viewer/internal/viewer"
	tea "github.com/charmbracelet/bubbletea"
)

func waitForBackendEvent(w *backend.Watcher) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-w.Events()
		if !ok {
			return backendDoneMsg{}
		}
		return backendEventMsg{event: evt}
	}
}

type backendEventMsg struct {
	event backend.Event
}

type backendDoneMsg struct{}

func (m *Model) handleBackendEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg, ok := msg.(backendEventMsg)
	if !ok {
		return nil
	}
	cmd := m.applyBackendEvent(eventMsg.event)
	if m.watcher != nil {
		waitCmd := waitForBackendEvent(m.watcher)
		if cmd != nil {
			return tea.Batch(cmd, waitCmd)
		}
		return waitCmd
	}
	return cmd
}

func (m *Model) handleBackendDoneMsg(tea.Msg) tea.Cmd {
	m.watcher = nil
	return nil
}

func (m *Model) applyBackendEvent(evt backend.Event) tea.Cmd {
	if evt.Err != nil {
		m.errMsg = evt.Err.Error()
		return nil
	}
	switch evt.Kind {
	case backend.KindMissing:
		m.errMsg = fmt.Sprintf("%s was removed", evt.Path)
		return nil
	case backend.KindDocument:
		content, _ := evt.Data.(string)
		events.UI.FileChanged(evt.Path, len(content))
		return m.loadContent("watch", "Reloaded "+evt.Path, content)
	}
	return nil
}

// loadContent starts a background load of content. The viewer refuses it
// while another load is in flight; the refusal surfaces as an error line.
func (m *Model) loadContent(id, label, content string) tea.Cmd {
	v := m.viewer
	return m.bus.Execute(command.Request{ID: id, Label: label, Run: func(ctx context.Context) error {
		return v.LoadDocument(ctx, content)
	}})
}

// reloadFile reads the configured document from disk and loads it.
func (m *Model) reloadFile() tea.Cmd {
	if m.filePath == "" {
		m.errMsg = "no document file configured"
		return nil
	}
	path := m.filePath
	v := m.viewer
	return m.bus.Execute(command.Request{ID: "reload", Label: "Reloading " + path, Run: func(ctx context.Context) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		return v.LoadDocument(ctx, string(data))
	}})
}

func (m *Model) loadDemo() tea.Cmd {
	return m.loadContent("demo", "Loading demo staircase", viewer.DemoDocument())
}
