package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// designatedMsg carries a task onto the Bubble Tea event loop, which is the
// designated thread for the terminal viewer.
type designatedMsg struct {
	fn func()
}

// sender is the part of *tea.Program the host needs.
type sender interface {
	Send(msg tea.Msg)
}

// Host implements host.Host on top of a Bubble Tea program. Tasks submitted
// before a program is attached are held in a backlog. Once attached, a single
// forwarding goroutine sends them to the program in submission order.
type Host struct {
	mu      sync.Mutex
	sender  sender
	pending []tea.Msg
	wake    chan struct{}
	done    chan struct{}
	closed  sync.Once

	workers sync.WaitGroup
}

// NewHost returns a host with no program attached.
func NewHost() *Host {
	return &Host{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Attach routes all further tasks, and the backlog, to p.
func (h *Host) Attach(p *tea.Program) {
	h.attach(p)
}

func (h *Host) attach(s sender) {
	h.mu.Lock()
	h.sender = s
	h.mu.Unlock()
	go h.forward(s)
	h.signal()
}

// Backlog removes and returns the tasks queued while no program is attached.
func (h *Host) Backlog() []tea.Msg {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sender != nil {
		return nil
	}
	backlog := h.pending
	h.pending = nil
	return backlog
}

// Close stops forwarding. Tasks still queued are dropped.
func (h *Host) Close() {
	h.closed.Do(func() { close(h.done) })
}

func (h *Host) RunOnDesignated(fn func()) {
	h.deliver(designatedMsg{fn: fn})
}

func (h *Host) ScheduleAfter(delay time.Duration, fn func()) {
	time.AfterFunc(delay, func() {
		h.deliver(designatedMsg{fn: fn})
	})
}

func (h *Host) Spawn(fn func()) {
	h.workers.Add(1)
	go func() {
		defer h.workers.Done()
		fn()
	}()
}

// Wait blocks until every spawned worker has returned.
func (h *Host) Wait() {
	h.workers.Wait()
}

// deliver never blocks: Send waits for the event loop, and the caller may
// be the event loop itself.
func (h *Host) deliver(msg tea.Msg) {
	h.mu.Lock()
	h.pending = append(h.pending, msg)
	attached := h.sender != nil
	h.mu.Unlock()
	if attached {
		h.signal()
	}
}

func (h *Host) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Host) forward(s sender) {
	for {
		select {
		case <-h.done:
			return
		case <-h.wake:
		}
		for {
			h.mu.Lock()
			batch := h.pending
			h.pending = nil
			h.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, msg := range batch {
				select {
				case <-h.done:
					return
				default:
				}
				s.Send(msg)
			}
		}
	}
}
