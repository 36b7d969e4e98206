// Package telemetry exposes Prometheus metrics for the message loop and
// background loads.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "staircase_dispatch_activations_total",
		Help: "Number of dispatcher activations on the designated thread.",
	})
	processed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staircase_messages_processed_total",
		Help: "Messages processed by the dispatcher, by tag.",
	}, []string{"tag"})
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "staircase_queue_depth",
		Help: "Messages left in the queue after the last activation.",
	})
	loads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staircase_loads_total",
		Help: "Document loads, by result.",
	}, []string{"result"})
	loadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "staircase_load_duration_seconds",
		Help:    "Time spent parsing documents.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})
)

func init() {
	prometheus.MustRegister(activations)
	prometheus.MustRegister(processed)
	prometheus.MustRegister(queueDepth)
	prometheus.MustRegister(loads)
	prometheus.MustRegister(loadDuration)
}

// Load results.
const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultCanceled = "canceled"
	ResultRejected = "rejected"
)

// Activation records one dispatcher pass.
func Activation(depth int) {
	activations.Inc()
	queueDepth.Set(float64(depth))
}

// Processed records a handled tag.
func Processed(tag string) {
	processed.WithLabelValues(tag).Inc()
}

// Load records the outcome of a load request.
func Load(result string, elapsed time.Duration) {
	loads.WithLabelValues(result).Inc()
	if result != ResultRejected {
		loadDuration.Observe(elapsed.Seconds())
	}
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
