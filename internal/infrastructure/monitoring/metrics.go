package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Bridge HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Poller metrics
	HandlesLive *prometheus.GaugeVec
	PollTicks   *prometheus.CounterVec
	PollErrors  *prometheus.CounterVec
	PollStale   *prometheus.CounterVec

	// Gesture metrics
	GestureSamples    *prometheus.CounterVec
	GestureDispatched prometheus.Counter
	GestureSuppressed prometheus.Counter

	// Navigation metrics
	ScreenTransitions *prometheus.CounterVec

	// Backend metrics
	BackendRequests *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
	TokenRefreshes  *prometheus.CounterVec

	// Camera metrics
	CameraTransitions *prometheus.CounterVec

	// Bridge WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector using a dedicated registry
// so tests can instantiate collectors independently.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg)
	m.registry = reg
	return m
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_bridge_requests_total",
				Help: "Total number of bridge HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "client_bridge_request_duration_seconds",
				Help:    "Bridge HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		HandlesLive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "client_resource_handles_live",
				Help: "Number of live poller/stream handles by kind",
			},
			[]string{"kind"},
		),
		PollTicks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_poll_ticks_total",
				Help: "Total poller ticks dispatched",
			},
			[]string{"owner", "kind"},
		),
		PollErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_poll_errors_total",
				Help: "Total poller ticks that failed",
			},
			[]string{"owner", "kind"},
		),
		PollStale: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_poll_stale_responses_total",
				Help: "Responses discarded because a newer tick was dispatched",
			},
			[]string{"owner", "kind"},
		),

		GestureSamples: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_gesture_samples_total",
				Help: "Gesture samples received by symbol",
			},
			[]string{"symbol"},
		),
		GestureDispatched: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "client_gesture_dispatched_total",
				Help: "Gesture samples dispatched to the active screen",
			},
		),
		GestureSuppressed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "client_gesture_suppressed_total",
				Help: "Gesture samples suppressed by the minimum update gap",
			},
		),

		ScreenTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_screen_transitions_total",
				Help: "Screen navigations by destination",
			},
			[]string{"screen"},
		),

		BackendRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_backend_requests_total",
				Help: "Backend requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		BackendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "client_backend_request_duration_seconds",
				Help:    "Backend request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint"},
		),
		TokenRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_token_refreshes_total",
				Help: "Credential refreshes by trigger (scheduled, unauthorized, manual)",
			},
			[]string{"trigger"},
		),

		CameraTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_camera_transitions_total",
				Help: "Camera state transitions (started, stopped)",
			},
			[]string{"transition"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "client_ws_connections",
				Help: "Open bridge WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "client_ws_messages_total",
				Help: "Bridge WebSocket messages by direction",
			},
			[]string{"direction"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "client_uptime_seconds",
				Help: "Client uptime in seconds",
			},
		),
	}
}

// Registry returns the underlying registry for exposition handlers.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records a bridge HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordBackendRequest records one backend call.
func (m *Metrics) RecordBackendRequest(endpoint, status string, duration time.Duration) {
	m.BackendRequests.WithLabelValues(endpoint, status).Inc()
	m.BackendDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
