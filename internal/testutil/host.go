package testutil

import (
	"sync"
	"time"
)

// Host is a host.Host whose designated thread is the test goroutine. Tasks
// queue until Run or RunAll is called; delayed tasks are kept apart so tests
// can inspect the requested delay.
type Host struct {
	mu      sync.Mutex
	tasks   []func()
	timers  []Timer
	workers sync.WaitGroup
}

// Timer is a ScheduleAfter request.
type Timer struct {
	Delay time.Duration
	Fn    func()
}

func (h *Host) RunOnDesignated(fn func()) {
	h.mu.Lock()
	h.tasks = append(h.tasks, fn)
	h.mu.Unlock()
}

func (h *Host) ScheduleAfter(delay time.Duration, fn func()) {
	h.mu.Lock()
	h.timers = append(h.timers, Timer{Delay: delay, Fn: fn})
	h.mu.Unlock()
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

// Pending reports the number of immediate tasks waiting to run.
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tasks)
}

// Timers returns the delayed tasks that have not fired yet.
func (h *Host) Timers() []Timer {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Timer, len(h.timers))
	copy(out, h.timers)
	return out
}

// Run executes the immediate tasks queued so far and returns how many ran.
// Tasks queued while running wait for the next call.
func (h *Host) Run() int {
	h.mu.Lock()
	tasks := h.tasks
	h.tasks = nil
	h.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
	return len(tasks)
}

// Fire moves every pending timer onto the immediate queue and runs it.
func (h *Host) Fire() int {
	h.mu.Lock()
	timers := h.timers
	h.timers = nil
	h.mu.Unlock()
	for _, t := range timers {
		t.Fn()
	}
	return len(timers)
}

// Step runs queued tasks, then fires timers, n times.
func (h *Host) Step(n int) {
	for i := 0; i < n; i++ {
		h.Run()
		h.Fire()
	}
}
