package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Logins tracks login and register calls by outcome.
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_session_logins_total",
			Help: "Total number of login/register calls by operation and outcome",
		},
		[]string{"operation", "outcome"}, // operation: "login", "register"
	)

	// Refreshes tracks refresh network calls by outcome.
	Refreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_session_refreshes_total",
			Help: "Total number of token refresh network calls by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	// RefreshesCoalesced tracks refresh callers that joined an in-flight
	// call instead of starting a new one.
	RefreshesCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "client_session_refreshes_coalesced_total",
			Help: "Total number of refresh callers coalesced onto an in-flight refresh",
		},
	)

	// Authenticated tracks whether a usable session is currently held.
	Authenticated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "client_session_authenticated",
			Help: "1 while a usable session is held, 0 otherwise",
		},
	)
)
