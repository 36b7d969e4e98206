// Package host abstracts the embedding runtime: which goroutine owns the
// rendering surface, how work is handed to it, and how workers are started.
package host

import "time"

// Host is the runtime the viewer is embedded in.
type Host interface {
	// RunOnDesignated queues fn for the designated thread and returns
	// immediately. It must be safe to call from any goroutine, including
	// the designated thread itself.
	RunOnDesignated(fn func())
	// ScheduleAfter runs fn on the designated thread once delay has elapsed.
	ScheduleAfter(delay time.Duration, fn func())
	// Spawn starts fn on a worker goroutine.
	Spawn(fn func())
}
