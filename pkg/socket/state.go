package socket

// ConnState is the connection state of a Session. Exactly one physical
// connection exists per session at any time.
type ConnState int

const (
	// StateDisconnected is the initial state, and the terminal state after
	// an explicit Disconnect.
	StateDisconnected ConnState = iota

	// StateConnecting means a handshake is in progress.
	StateConnecting

	// StateConnected means the connection is established and the heartbeat
	// is running.
	StateConnected

	// StateError means the last handshake or the established connection
	// failed. The session reconnects from here while attempts remain.
	StateError
)

// String returns the state name for logs and metrics.
func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
