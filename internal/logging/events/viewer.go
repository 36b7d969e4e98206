package events

import (
	"time"

	"github.com/atomicstack/staircase-viewer/internal/logging"
)

type QueueTracer struct{}

type DispatchTracer struct{}

type LoadTracer struct{}

var (
	Queue    = QueueTracer{}
	Dispatch = DispatchTracer{}
	Load     = LoadTracer{}
)

func (QueueTracer) Push(msg string, depth int) {
	logging.Trace("queue.push", map[string]interface{}{"msg": msg, "depth": depth})
}

func (DispatchTracer) Activate(batch int, processed int, reschedule bool) {
	logging.Trace("dispatch.activate", map[string]interface{}{
		"batch":      batch,
		"processed":  processed,
		"reschedule": reschedule,
	})
}

func (DispatchTracer) Unknown(tag string) {
	logging.Trace("dispatch.unknown", map[string]interface{}{"tag": tag})
}

func (DispatchTracer) Schedule(delay time.Duration) {
	logging.Trace("dispatch.schedule", map[string]interface{}{"delayMs": delay.Milliseconds()})
}

func (LoadTracer) Start(size int) {
	logging.Trace("load.start", map[string]interface{}{"size": size})
}

func (LoadTracer) Reject(reason string) {
	logging.Trace("load.reject", map[string]interface{}{"reason": reason})
}

func (LoadTracer) Fail(err error, elapsed time.Duration) {
	if err == nil {
		return
	}
	logging.Trace("load.fail", map[string]interface{}{"error": err.Error(), "elapsedMs": elapsed.Milliseconds()})
}

func (LoadTracer) Cancel(elapsed time.Duration) {
	logging.Trace("load.cancel", map[string]interface{}{"elapsedMs": elapsed.Milliseconds()})
}

func (LoadTracer) Done(name string, entities int, elapsed time.Duration) {
	logging.Trace("load.done", map[string]interface{}{
		"name":      name,
		"entities":  entities,
		"elapsedMs": elapsed.Milliseconds(),
	})
}
