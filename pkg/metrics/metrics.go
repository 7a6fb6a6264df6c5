// Package metrics provides the centralized Prometheus registry for the
// client. All metrics are defined in their respective packages (cache,
// scheduler, socket, session, client) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - client_cache_hits_total (Counter): Cache hits
//   - client_cache_misses_total (Counter): Cache misses
//   - client_cache_evictions_total{reason} (Counter): Evictions by reason (lru, expired, invalidated)
//   - client_cache_entries (Gauge): Current number of cached entries
//
// Scheduler Metrics (pkg/scheduler):
//   - client_scheduler_tasks_submitted_total{priority} (Counter): Tasks submitted by priority
//   - client_scheduler_tasks_completed_total{outcome} (Counter): Tasks completed by outcome (success, error, timeout, cancelled)
//   - client_scheduler_tasks_active (Gauge): Tasks currently running
//   - client_scheduler_tasks_queued (Gauge): Tasks waiting for a concurrency slot
//   - client_scheduler_task_duration_seconds{priority} (Histogram): Task run time by priority
//
// Socket Metrics (pkg/socket):
//   - client_socket_state_transitions_total{state} (Counter): State transitions by target state
//   - client_socket_reconnect_attempts_total (Counter): Reconnection attempts
//   - client_socket_heartbeats_total (Counter): Heartbeat pings sent
//   - client_socket_messages_received_total{decoded} (Counter): Inbound messages by decoding outcome (structured, raw)
//   - client_socket_messages_dropped_total (Counter): Inbound messages dropped on full buffers
//
// Session Metrics (pkg/session):
//   - client_session_logins_total{operation, outcome} (Counter): Login/register calls
//   - client_session_refreshes_total{outcome} (Counter): Refresh network calls by outcome
//   - client_session_refreshes_coalesced_total (Counter): Callers coalesced onto an in-flight refresh
//   - client_session_authenticated (Gauge): 1 while a usable session is held
//
// Request Metrics (pkg/client):
//   - client_requests_total{method, result} (Counter): Requests by method and result (success, error, cache_hit)
//   - client_request_duration_seconds{method} (Histogram): End-to-end request duration
//   - client_auth_retries_total{outcome} (Counter): Transparent 401 refresh-and-retry attempts
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(client_cache_hits_total[5m])) /
//   (sum(rate(client_cache_hits_total[5m])) + sum(rate(client_cache_misses_total[5m])))
//
//   # Scheduler Saturation
//   client_scheduler_tasks_queued > 0
//
//   # Request Error Rate
//   sum(rate(client_requests_total{result="error"}[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(client_request_duration_seconds_bucket[5m]))
//
//   # Refresh Coalescing Effectiveness
//   rate(client_session_refreshes_coalesced_total[5m]) / rate(client_session_refreshes_total[5m])
