package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the collectors exposed on /metrics. Each server owns its
// registry so tests can build servers side by side.
type metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge

	archiveOps *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	m := &metrics{registry: registry}
	m.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbztag_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	m.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cbztag_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	m.inFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "cbztag_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
	m.archiveOps = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cbztag_archive_operations_total",
			Help: "Total number of archive operations by outcome",
		},
		[]string{"operation", "result"},
	)
	return m
}

// recordArchiveOp counts one archive operation. result is "ok" or the error kind.
func (m *metrics) recordArchiveOp(operation string, err error) {
	result := "ok"
	if err != nil {
		result = errorKind(err)
	}
	m.archiveOps.WithLabelValues(operation, result).Inc()
}
