// Package socket manages one persistent bidirectional connection with
// heartbeat and bounded automatic reconnection.
//
// A Session is a state machine over four states:
//
//	Disconnected --Connect--> Connecting
//	Connecting   --handshake ok--> Connected
//	Connecting   --handshake fails--> Error
//	Connected    --read error / remote close--> Error
//	Connected    --Disconnect--> Disconnected
//	Error        --reconnect timer (attempts < max)--> Connecting
//	Error        --attempts exhausted--> Error (until Connect is called again)
//
// While Connected, a heartbeat ticker sends a ping at a configurable
// interval; any transition away from Connected stops it. On entering Error
// a single reconnect timer is armed for a fixed interval; hitting
// MaxReconnectAttempts stops further scheduling and the exhaustion is
// visible on the state channel, never as a panic or a hidden retry.
//
// Inbound payloads are decoded opportunistically: payloads that parse as
// the structured envelope are published typed, anything else is published
// raw. Both the message channel and the state channel are buffered with
// drop-oldest backpressure so a slow consumer can never block the read
// loop.
//
// The wire transport is injected via the Dialer interface; the default
// implementation uses github.com/gorilla/websocket.
package socket
