// Package metrics registers the Prometheus instrumentation for the
// HTTP API and the realtime messaging channel.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec

	// Realtime channel metrics
	WSConnectionsActive   prometheus.Gauge
	WSEventsTotal         prometheus.CounterVec
	WSMessagesSentTotal   prometheus.Counter
	WSMessagesDropped     prometheus.CounterVec
	WSReadReceiptsFlipped prometheus.Counter

	// Housekeeping metrics
	CleanupRunsTotal     prometheus.CounterVec
	CleanupDocsProcessed prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),

			WSConnectionsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "ws_connections_active",
					Help: "Number of open websocket connections",
				},
			),
			WSEventsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ws_events_total",
					Help: "Client events received over the realtime channel",
				},
				[]string{"event"},
			),
			WSMessagesSentTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "ws_messages_sent_total",
					Help: "Messages pushed to clients",
				},
			),
			WSMessagesDropped: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ws_messages_dropped_total",
					Help: "Messages dropped instead of delivered",
				},
				[]string{"reason"},
			),
			WSReadReceiptsFlipped: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "ws_read_receipts_flipped_total",
					Help: "Messages flipped from unread to read",
				},
			),

			CleanupRunsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cleanup_runs_total",
					Help: "Housekeeping sweeps by outcome",
				},
				[]string{"status"},
			),
			CleanupDocsProcessed: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cleanup_docs_processed_total",
					Help: "Documents released or deleted by housekeeping",
				},
				[]string{"kind"},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total number of application errors",
				},
				[]string{"type", "component"},
			),
		}
	})
	return instance
}

// Get returns the metrics singleton, initializing on first use
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
