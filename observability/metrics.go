package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection metrics
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kinder_chat_online_users",
			Help: "Users holding at least one live connection",
		},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kinder_chat_live_connections",
			Help: "Live websocket connections",
		},
	)

	HandshakesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kinder_chat_handshakes_rejected_total",
			Help: "Connections refused before admission",
		},
	)

	// Event metrics
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kinder_chat_events_received_total",
			Help: "Inbound events by name",
		},
		[]string{"event"},
	)

	EventErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kinder_chat_event_errors_total",
			Help: "Error events sent back to the origin connection",
		},
		[]string{"event", "kind"},
	)

	MessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kinder_chat_messages_persisted_total",
			Help: "Messages stored",
		},
	)

	MessagesCensored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kinder_chat_messages_censored_total",
			Help: "Messages altered by moderation",
		},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kinder_chat_delivery_failures_total",
			Help: "Fan-out deliveries that did not reach a connection",
		},
		[]string{"event"},
	)

	HandlerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kinder_chat_handler_duration_seconds",
			Help:    "Inbound event handling duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"event"},
	)
)
