// Package metrics instruments the named suspension points of the server's
// event loop: inbound socket reads, outbound socket writes, store
// round-trips, and timer fires. The teacher's own prom_proxy package only
// ever consumes Prometheus as an HTTP API client (querying an existing
// server); it never registers metrics of its own, so this package's
// instrument-and-expose shape follows the standard client_golang
// promauto/promhttp pattern rather than any one teacher file.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every counter/histogram the server exposes. One Registry
// is constructed at startup and threaded through hub and coordinator.
type Registry struct {
	InboundMessages   *prometheus.CounterVec
	OutboundMessages  *prometheus.CounterVec
	RateLimitDrops    prometheus.Counter
	StoreOperations   *prometheus.CounterVec
	StoreLatency      *prometheus.HistogramVec
	TimerFires        *prometheus.CounterVec
	RoomsActive       prometheus.Gauge
	ConnectionsActive prometheus.Gauge
	QueueDepth        prometheus.Histogram
	reg               *prometheus.Registry
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		InboundMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hokm_inbound_messages_total",
			Help: "Inbound websocket messages processed, by message type.",
		}, []string{"type"}),
		OutboundMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hokm_outbound_messages_total",
			Help: "Outbound websocket messages sent, by delivery outcome (delivered, dropped_backpressure).",
		}, []string{"outcome"}),
		RateLimitDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "hokm_rate_limit_drops_total",
			Help: "Inbound messages dropped by the per-connection rate limiter.",
		}),
		StoreOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hokm_store_operations_total",
			Help: "SessionStore operations, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		StoreLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hokm_store_operation_duration_seconds",
			Help:    "SessionStore operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		TimerFires: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hokm_timer_fires_total",
			Help: "Timer fires, by kind (turn_deadline, reconnect_grace).",
		}, []string{"kind"}),
		RoomsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hokm_rooms_active",
			Help: "Room actors held by the coordinator, in any phase.",
		}),
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hokm_connections_active",
			Help: "Live websocket connections.",
		}),
		QueueDepth: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hokm_room_queue_depth",
			Help:    "RoomCoordinator inbound queue depth observed at submit time.",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),
		reg: reg,
	}
}

// Handler exposes the registry on /metrics for Prometheus scraping.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
