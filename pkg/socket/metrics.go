package socket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StateTransitions tracks state machine transitions by target state.
	StateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_socket_state_transitions_total",
			Help: "Total number of socket state transitions by target state",
		},
		[]string{"state"},
	)

	// ReconnectAttempts tracks reconnection attempts.
	ReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_socket_reconnect_attempts_total",
			Help: "Total number of socket reconnection attempts",
		},
	)

	// HeartbeatsSent tracks heartbeat pings sent while connected.
	HeartbeatsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_socket_heartbeats_total",
			Help: "Total number of heartbeat pings sent",
		},
	)

	// MessagesReceived tracks inbound messages by decoding outcome.
	MessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_socket_messages_received_total",
			Help: "Total number of inbound socket messages",
		},
		[]string{"decoded"}, // "structured", "raw"
	)

	// MessagesDropped tracks messages dropped by backpressure.
	MessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_socket_messages_dropped_total",
			Help: "Total number of inbound messages dropped because the subscriber buffer was full",
		},
	)
)
