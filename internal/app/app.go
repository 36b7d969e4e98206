package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/atomicstack/staircase-viewer/internal/backend"
	"github.com/atomicstack/staircase-viewer/internal/host"
	"github.com/atomicstack/staircase-viewer/internal/logging"
	"github.com/atomicstack/staircase-viewer/internal/render"
	"github.com/atomicstack/staircase-viewer/internal/step"
	"github.com/atomicstack/staircase-viewer/internal/telemetry"
	"github.com/atomicstack/staircase-viewer/internal/ui"
	"github.com/atomicstack/staircase-viewer/internal/viewer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// Config describes user-provided application options.
type Config struct {
	Headless       bool
	FilePath       string
	Watch          bool
	WatchInterval  time.Duration
	Width          int
	Height         int
	FrameRate      float64
	FrameInterval  time.Duration
	BootstrapDelay time.Duration
	SnapshotPath   string
	Duration       time.Duration
	MetricsAddr    string
}

// ErrLoadFailed reports a headless run whose document did not parse.
var ErrLoadFailed = errors.New("document load failed")

// Run starts the viewer in the terminal, or offscreen when Headless is set,
// and blocks until it exits.
func Run(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := telemetry.Serve(ctx, cfg.MetricsAddr); err != nil {
				logging.Error(fmt.Errorf("metrics server: %w", err))
			}
		}()
	}

	content, err := readDocument(cfg.FilePath)
	if err != nil {
		return err
	}

	var watcher *backend.Watcher
	if cfg.Watch && cfg.FilePath != "" {
		watcher = backend.NewWatcher(cfg.FilePath, cfg.WatchInterval)
		defer watcher.Stop()
	}

	if cfg.Headless {
		return RunHeadless(ctx, cfg, content, watcher)
	}
	return runTerminal(cfg, content, watcher)
}

func readDocument(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	logging.Logf("read %s (%s)", path, humanize.Bytes(uint64(len(data))))
	return string(data), nil
}

func runTerminal(cfg Config, content string, watcher *backend.Watcher) error {
	model, err := ui.NewModel(ui.Options{
		SurfaceWidth:   cfg.Width,
		SurfaceHeight:  cfg.Height,
		FrameInterval:  cfg.FrameInterval,
		BootstrapDelay: cfg.BootstrapDelay,
		FilePath:       cfg.FilePath,
		Content:        content,
		Watcher:        watcher,
	})
	if err != nil {
		return fmt.Errorf("create viewer: %w", err)
	}
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen())
	model.Host().Attach(program)
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// RunHeadless drives a viewer on an offscreen surface. With a positive
// Duration it runs for that long; with a watcher it runs until ctx ends;
// otherwise it stops once the first load has settled. The final frame is
// written to SnapshotPath when set.
func RunHeadless(ctx context.Context, cfg Config, content string, watcher *backend.Watcher) error {
	loop := host.NewLoop(cfg.FrameRate)
	raster := render.NewRaster(cfg.Width, cfg.Height)
	defer raster.Close()

	v, err := viewer.New(loop, raster, step.NewReader(), viewer.Options{FrameInterval: cfg.FrameInterval})
	if err != nil {
		return fmt.Errorf("create viewer: %w", err)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	if cfg.Duration > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, cfg.Duration)
		defer cancelTimeout()
	}

	if err := v.Start(runCtx, content, cfg.BootstrapDelay); err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}
	if watcher != nil {
		go forwardReloads(runCtx, v, watcher)
	} else if cfg.Duration <= 0 {
		waitForSettle(loop, v, cfg.FrameInterval, stop)
	}

	err = loop.Run(runCtx)
	v.CancelLoad()
	loop.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if cfg.SnapshotPath != "" {
		if err := raster.SavePNG(cfg.SnapshotPath); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		logging.Logf("snapshot written to %s", cfg.SnapshotPath)
	}
	if msg := v.LastError(); msg != "" && v.Document() == nil {
		return fmt.Errorf("%w: %s", ErrLoadFailed, msg)
	}
	return nil
}

// waitForSettle polls on the designated thread until the first load has
// finished, lets two more frames draw, then calls stop.
func waitForSettle(h host.Host, v *viewer.Viewer, interval time.Duration, stop func()) {
	if interval <= 0 {
		interval = viewer.DefaultFrameInterval
	}
	var check func()
	check = func() {
		settled := !v.Loading() && (v.Document() != nil || v.LastError() != "")
		if settled {
			h.ScheduleAfter(2*interval, stop)
			return
		}
		h.ScheduleAfter(interval, check)
	}
	h.ScheduleAfter(interval, check)
}

func forwardReloads(ctx context.Context, v *viewer.Viewer, watcher *backend.Watcher) {
	events := watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Err != nil {
				logging.Error(ev.Err)
				continue
			}
			switch ev.Kind {
			case backend.KindDocument:
				content, _ := ev.Data.(string)
				if err := v.LoadDocument(ctx, content); err != nil {
					logging.Error(fmt.Errorf("reload %s: %w", ev.Path, err))
				}
			case backend.KindMissing:
				logging.Logf("document %s is missing", ev.Path)
			}
		}
	}
}
