// Package metrics exposes Prometheus counters for page fetches.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownTimeout bounds how long Serve waits for in-flight scrapes on exit.
const shutdownTimeout = 5 * time.Second

// Metrics holds the collectors for one process. It implements fetch.Observer.
type Metrics struct {
	registry *prometheus.Registry

	PageFetches   *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	RecordsLoaded prometheus.Counter
}

// New creates collectors registered on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PageFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "applist_page_fetches_total",
				Help: "Total number of page fetches by outcome",
			},
			[]string{"outcome"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "applist_page_fetch_duration_seconds",
				Help:    "Duration of page fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		RecordsLoaded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "applist_records_fetched_total",
				Help: "Total number of application records received",
			},
		),
	}
	m.registry.MustRegister(m.PageFetches, m.FetchDuration, m.RecordsLoaded)
	return m
}

// ObserveFetch records one completed fetch.
func (m *Metrics) ObserveFetch(outcome string, duration time.Duration, records int) {
	m.PageFetches.WithLabelValues(outcome).Inc()
	m.FetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if records > 0 {
		m.RecordsLoaded.Add(float64(records))
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry in exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Listen binds addr and returns the listener so callers learn the bound port.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	return ln, nil
}

// Serve serves /metrics on ln until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving metrics: %w", err)
	}
}
