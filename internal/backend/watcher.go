package backend

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Kind represents the type of data emitted by the watcher.
type Kind int

const (
	// KindDocument carries the new file content as a string.
	KindDocument Kind = iota
	// KindMissing reports that the watched file disappeared.
	KindMissing
)

// Event conveys updated data or an error from a poll.
type Event struct {
	Kind Kind
	Path string
	Data interface{}
	Err  error
}

// Watcher polls a document on disk at a fixed interval and publishes an
// event whenever its size or modification time changes.
type Watcher struct {
	path     string
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	wg     sync.WaitGroup
}

type fingerprint struct {
	size    int64
	modTime int64
	missing bool
}

// NewWatcher creates a watcher for path. The file's current state is the
// baseline; only later changes produce events.
func NewWatcher(path string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     path,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, 4),
	}

	w.startDocumentPoller()

	go func() {
		w.wg.Wait()
		close(w.events)
	}()

	return w
}

// Events returns a channel of watcher events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop cancels the watcher. The poller exits after its current read
// completes; use Wait if a clean drain is required (e.g. in tests).
func (w *Watcher) Stop() {
	w.cancel()
}

// Wait blocks until the poller has exited and the events channel is closed.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

// startDocumentPoller reads the file at most once per half interval, and
// only once its fingerprint has held still across the read limiter's wait.
func (w *Watcher) startDocumentPoller() {
	reads := rate.NewLimiter(rate.Every(w.interval/2), 1)
	last := stat(w.path)
	w.wg.Add(1)
	go w.poll(func(ctx context.Context) (*Event, error) {
		current := stat(w.path)
		if current == last {
			return nil, nil
		}
		if current.missing {
			last = current
			return &Event{Kind: KindMissing, Path: w.path}, nil
		}
		if err := reads.Wait(ctx); err != nil {
			return nil, nil
		}
		if stat(w.path) != current {
			// still being written; a later tick picks it up
			return nil, nil
		}
		last = current
		data, err := os.ReadFile(w.path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", w.path, err)
		}
		return &Event{Kind: KindDocument, Path: w.path, Data: string(data)}, nil
	})
}

func stat(path string) fingerprint {
	info, err := os.Stat(path)
	if err != nil {
		return fingerprint{missing: true}
	}
	return fingerprint{size: info.Size(), modTime: info.ModTime().UnixNano()}
}

func (w *Watcher) poll(fetch func(context.Context) (*Event, error)) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			evt, err := fetch(w.ctx)
			if err != nil {
				evt = &Event{Kind: KindDocument, Path: w.path, Err: err}
			}
			if evt == nil {
				continue
			}
			select {
			case <-w.ctx.Done():
				return
			case w.events <- *evt:
			}
		}
	}
}
