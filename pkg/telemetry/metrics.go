package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the bridge.
type Metrics struct {
	config MetricsConfig

	requestsStarted   *prometheus.CounterVec
	requestsCompleted *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec

	drainDuration *prometheus.HistogramVec
	drainedTasks  *prometheus.CounterVec

	checkFailures prometheus.Counter
	activeRequest prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector. When metrics are disabled every
// recording method is a no-op.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		requestsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_started_total",
				Help:      "Total number of bridge requests started",
			},
			[]string{"method"},
		),
		requestsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_completed_total",
				Help:      "Total number of bridge requests completed",
			},
			[]string{"method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of bridge requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		drainDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "drain_duration_seconds",
				Help:      "Time spent draining request-scoped tasks before responding",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		drainedTasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "drained_tasks_total",
				Help:      "Total number of request-scoped tasks awaited before responding",
			},
			[]string{"method"},
		),
		checkFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_failures_total",
				Help:      "Total number of argument validation failures reported by handlers",
			},
		),
		activeRequest: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_requests",
				Help:      "Whether a request currently holds the serialization lock (0 or 1)",
			},
		),
	}

	registry.MustRegister(
		m.requestsStarted,
		m.requestsCompleted,
		m.requestDuration,
		m.drainDuration,
		m.drainedTasks,
		m.checkFailures,
		m.activeRequest,
	)

	return m, nil
}

// RecordRequestStarted marks a request as having acquired the lock.
func (m *Metrics) RecordRequestStarted(method string) {
	if m.requestsStarted == nil {
		return
	}
	m.requestsStarted.WithLabelValues(method).Inc()
	m.activeRequest.Inc()
}

// RecordRequestCompleted records a finished request with its status and
// duration.
func (m *Metrics) RecordRequestCompleted(method, status string, duration time.Duration) {
	if m.requestsCompleted == nil {
		return
	}
	m.requestsCompleted.WithLabelValues(method, status).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
	m.activeRequest.Dec()
}

// RecordDrain records one drain phase.
func (m *Metrics) RecordDrain(method string, duration time.Duration, tasks int) {
	if m.drainDuration == nil {
		return
	}
	m.drainDuration.WithLabelValues(method).Observe(duration.Seconds())
	m.drainedTasks.WithLabelValues(method).Add(float64(tasks))
}

// RecordCheckFailures counts handler-reported validation failures.
func (m *Metrics) RecordCheckFailures(n int) {
	if m.checkFailures == nil || n == 0 {
		return
	}
	m.checkFailures.Add(float64(n))
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts the metrics HTTP endpoint on its configured
// address. It returns immediately; serve errors are reported through the
// returned channel.
func (m *Metrics) StartMetricsServer() <-chan error {
	errs := make(chan error, 1)
	if !m.config.Enabled {
		close(errs)
		return errs
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errs <- err
		}
		close(errs)
	}()

	return errs
}
