package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	realtimeConnections  prometheus.Gauge
	realtimeEventsTotal  *prometheus.CounterVec
	realtimeDroppedTotal *prometheus.CounterVec
	alertsTriggeredTotal *prometheus.CounterVec
	chatMessagesTotal    *prometheus.CounterVec
	persistenceFailures  *prometheus.CounterVec
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the realtime
// coordination layer.
func RegisterMetrics() {
	registerOnce.Do(func() {
		realtimeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Number of live websocket sessions on this node.",
		})

		realtimeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Total inbound realtime events processed, by event name.",
		}, []string{"event"})

		realtimeDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_dropped_total",
			Help: "Outbound events dropped for slow sessions, by event name.",
		}, []string{"event"})

		alertsTriggeredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "emergency_alerts_total",
			Help: "Emergency alerts triggered, by type and severity.",
		}, []string{"type", "severity"})

		chatMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Chat messages accepted for delivery, by kind.",
		}, []string{"kind"})

		persistenceFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "persistence_failures_total",
			Help: "Store write failures, by operation.",
		}, []string{"operation"})

		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		prometheus.MustRegister(
			realtimeConnections,
			realtimeEventsTotal,
			realtimeDroppedTotal,
			alertsTriggeredTotal,
			chatMessagesTotal,
			persistenceFailures,
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
		)
	})
}

// RealtimeConnections exposes the live session gauge.
func RealtimeConnections() prometheus.Gauge {
	RegisterMetrics()
	return realtimeConnections
}

// RealtimeEvents exposes the inbound event counter.
func RealtimeEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeEventsTotal
}

// RealtimeDropped exposes the dropped-event counter.
func RealtimeDropped() *prometheus.CounterVec {
	RegisterMetrics()
	return realtimeDroppedTotal
}

// AlertsTriggered exposes the alert counter.
func AlertsTriggered() *prometheus.CounterVec {
	RegisterMetrics()
	return alertsTriggeredTotal
}

// ChatMessages exposes the chat send counter.
func ChatMessages() *prometheus.CounterVec {
	RegisterMetrics()
	return chatMessagesTotal
}

// PersistenceFailures exposes the store failure counter.
func PersistenceFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return persistenceFailures
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}
