package host

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopRunsTasksInOrderOnOneGoroutine(t *testing.T) {
	l := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		l.RunOnDesignated(func() {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		})
	}
	go func() { _ = l.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tasks")
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("expected in-order execution, got %v", order)
		}
	}
}

func TestLoopScheduleAfterDelays(t *testing.T) {
	l := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	start := time.Now()
	fired := make(chan time.Duration, 1)
	l.ScheduleAfter(20*time.Millisecond, func() { fired <- time.Since(start) })

	select {
	case elapsed := <-fired:
		if elapsed < 20*time.Millisecond {
			t.Fatalf("fired too early after %v", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduled task never ran")
	}
}

func TestLoopReentrantRunOnDesignated(t *testing.T) {
	l := NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	done := make(chan struct{})
	l.RunOnDesignated(func() {
		l.RunOnDesignated(func() { close(done) })
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested task never ran")
	}
}

func TestLoopSpawnAndWait(t *testing.T) {
	l := NewLoop(60)
	var n atomic.Int32
	for i := 0; i < 3; i++ {
		l.Spawn(func() { n.Add(1) })
	}
	l.Wait()
	if n.Load() != 3 {
		t.Fatalf("expected 3 workers, got %d", n.Load())
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	l := NewLoop(60)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}
