package host

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type task struct {
	fn    func()
	timed bool
}

// Loop is a Host whose designated thread is the goroutine calling Run. Timed
// tasks are paced by a token bucket so a misbehaving caller cannot exceed the
// configured frame rate.
type Loop struct {
	frames *rate.Limiter

	mu      sync.Mutex
	pending []task
	wake    chan struct{}

	workers sync.WaitGroup
}

// NewLoop creates a loop capping timed tasks at fps per second.
func NewLoop(fps float64) *Loop {
	limit := rate.Inf
	if fps > 0 {
		limit = rate.Limit(fps)
	}
	return &Loop{
		frames: rate.NewLimiter(limit, 1),
		wake:   make(chan struct{}, 1),
	}
}

func (l *Loop) RunOnDesignated(fn func()) {
	l.enqueue(task{fn: fn})
}

func (l *Loop) ScheduleAfter(delay time.Duration, fn func()) {
	time.AfterFunc(delay, func() {
		l.enqueue(task{fn: fn, timed: true})
	})
}

func (l *Loop) Spawn(fn func()) {
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		fn()
	}()
}

// Wait blocks until every spawned worker has returned.
func (l *Loop) Wait() {
	l.workers.Wait()
}

func (l *Loop) enqueue(t task) {
	l.mu.Lock()
	l.pending = append(l.pending, t)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run services queued tasks on the calling goroutine, locked to its OS
// thread, until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()
		for _, t := range batch {
			if t.timed {
				if err := l.frames.Wait(ctx); err != nil && ctx.Err() != nil {
					return ctx.Err()
				}
			}
			t.fn()
		}
	}
}
