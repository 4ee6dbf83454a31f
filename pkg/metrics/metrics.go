// Package metrics exposes the relay's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drawsync_active_connections",
		Help: "Currently registered WebSocket connections.",
	})
	ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drawsync_connections_total",
		Help: "Accepted WebSocket connections since start.",
	})
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drawsync_messages_total",
		Help: "Inbound messages accepted, by type.",
	}, []string{"type"})
	MalformedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drawsync_malformed_messages_total",
		Help: "Inbound messages dropped as malformed.",
	})
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drawsync_rate_limited_messages_total",
		Help: "Inbound messages dropped by the per-identity rate limiter.",
	})
	BroadcastsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drawsync_broadcasts_delivered_total",
		Help: "Per-recipient broadcast deliveries.",
	})
	BroadcastsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drawsync_broadcasts_dropped_total",
		Help: "Per-recipient broadcast sends skipped (closed or full buffer).",
	})
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drawsync_persistence_failures_total",
		Help: "Record store failures that suppressed a broadcast.",
	})
)

// Handler returns the /metrics scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
