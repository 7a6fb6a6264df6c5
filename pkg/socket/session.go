package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Typed errors returned by Session operations.
var (
	// ErrNotConnected is returned by Send when the session is not in
	// StateConnected. Messages are never queued implicitly.
	ErrNotConnected = errors.New("socket not connected")

	// ErrHandshakeFailed wraps dial failures reported by Connect.
	ErrHandshakeFailed = errors.New("socket handshake failed")
)

// Message is one inbound payload. Payloads that parse as the structured
// envelope carry Type and Payload; anything else is published with Raw set
// and an empty Type.
type Message struct {
	// Type is the structured message type, empty for raw payloads.
	Type string `json:"type"`

	// Payload is the structured message body.
	Payload json.RawMessage `json:"payload"`

	// Raw holds the undecoded payload when structured decoding failed.
	Raw []byte `json:"-"`
}

// Config holds the session configuration.
type Config struct {
	// URL is the endpoint to connect to.
	URL string

	// Header is sent with the handshake (e.g. Authorization).
	Header http.Header

	// HeartbeatInterval is the ping period while connected.
	HeartbeatInterval time.Duration

	// ReconnectInterval is the fixed delay between reconnect attempts.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts bounds automatic reconnection per connect
	// cycle. Connect resets the counter.
	MaxReconnectAttempts int

	// MessageBuffer is the capacity of the inbound message channel.
	MessageBuffer int

	// StateBuffer is the capacity of the state change channel.
	StateBuffer int

	// Dialer performs the handshake. Defaults to WebsocketDialer.
	Dialer Dialer
}

// DefaultConfig returns a safe default configuration for the given URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:                  url,
		HeartbeatInterval:    30 * time.Second,
		ReconnectInterval:    5 * time.Second,
		MaxReconnectAttempts: 5,
		MessageBuffer:        64,
		StateBuffer:          16,
		Dialer:               &WebsocketDialer{},
	}
}

// Session manages one persistent connection. All methods are safe for
// concurrent use. Create with NewSession, start with Connect, tear down
// with Disconnect.
type Session struct {
	mu     sync.Mutex
	state  ConnState
	conn   Conn
	config Config
	logger zerolog.Logger

	// gen invalidates goroutines and timers of previous connect cycles:
	// every Connect and Disconnect bumps it, and stale workers compare
	// before touching session state.
	gen uint64

	attempts       int
	disconnected   bool // caller explicitly disconnected
	reconnectTimer *time.Timer
	hbStop         chan struct{}

	messages chan Message
	states   chan ConnState
}

// NewSession creates a session. No connection is made until Connect.
func NewSession(cfg Config) *Session {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultConfig(cfg.URL).HeartbeatInterval
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultConfig(cfg.URL).ReconnectInterval
	}
	if cfg.MessageBuffer <= 0 {
		cfg.MessageBuffer = DefaultConfig(cfg.URL).MessageBuffer
	}
	if cfg.StateBuffer <= 0 {
		cfg.StateBuffer = DefaultConfig(cfg.URL).StateBuffer
	}
	if cfg.Dialer == nil {
		cfg.Dialer = &WebsocketDialer{}
	}

	return &Session{
		state:    StateDisconnected,
		config:   cfg,
		logger:   log.With().Str("component", "socket").Str("url", cfg.URL).Logger(),
		messages: make(chan Message, cfg.MessageBuffer),
		states:   make(chan ConnState, cfg.StateBuffer),
	}
}

// Connect starts a new connect cycle: the attempt counter is reset and any
// in-progress attempt from a previous cycle is discarded. The first
// handshake runs synchronously; on failure the session enters StateError
// and bounded reconnection takes over, and the handshake error is
// returned wrapped in ErrHandshakeFailed.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	s.disconnected = false
	s.attempts = 0
	s.gen++
	gen := s.gen
	s.teardownLocked()
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	return s.dial(ctx, gen)
}

// Disconnect terminates the session: heartbeat and reconnect timers are
// cancelled unconditionally and the state settles at StateDisconnected.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disconnected = true
	s.gen++
	s.teardownLocked()
	s.setStateLocked(StateDisconnected)
}

// Send marshals v and writes it to the connection. Fails immediately with
// ErrNotConnected unless the session is connected; there is no implicit
// queuing.
func (s *Session) Send(v any) error {
	s.mu.Lock()
	if s.state != StateConnected || s.conn == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	conn := s.conn
	s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := conn.WriteMessage(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// State returns the current connection state.
func (s *Session) State() ConnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns the inbound message channel. The channel is buffered;
// when the buffer is full the oldest message is dropped so the read loop
// never blocks.
func (s *Session) Messages() <-chan Message {
	return s.messages
}

// States returns the connection state channel. Same drop-oldest
// backpressure as Messages.
func (s *Session) States() <-chan ConnState {
	return s.states
}

// dial performs one handshake attempt for the given connect cycle.
func (s *Session) dial(ctx context.Context, gen uint64) error {
	conn, err := s.config.Dialer.Dial(ctx, s.config.URL, s.config.Header)

	s.mu.Lock()
	if gen != s.gen || s.disconnected {
		// A newer Connect or a Disconnect superseded this attempt.
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return nil
	}

	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("attempt", s.attempts).
			Msg("Handshake failed")
		s.setStateLocked(StateError)
		s.scheduleReconnectLocked()
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}

	s.conn = conn
	s.attempts = 0
	s.setStateLocked(StateConnected)
	s.startHeartbeatLocked(gen)
	s.mu.Unlock()

	go s.readLoop(gen, conn)
	return nil
}

// readLoop consumes the connection until it fails or is superseded.
// Publishing must never block: handoff to subscribers is drop-oldest.
func (s *Session) readLoop(gen uint64, conn Conn) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if gen != s.gen {
				s.mu.Unlock()
				return
			}
			s.conn = nil
			if s.disconnected {
				s.setStateLocked(StateDisconnected)
			} else {
				s.logger.Warn().Err(err).Msg("Connection lost")
				s.stopHeartbeatLocked()
				s.setStateLocked(StateError)
				s.scheduleReconnectLocked()
			}
			s.mu.Unlock()
			return
		}

		s.publish(decode(data))
	}
}

// scheduleReconnectLocked arms the single reconnect timer, unless the
// caller disconnected or attempts are exhausted. Caller must hold s.mu.
func (s *Session) scheduleReconnectLocked() {
	if s.disconnected {
		return
	}
	if s.attempts >= s.config.MaxReconnectAttempts {
		s.logger.Error().
			Int("attempts", s.attempts).
			Msg("Reconnect attempts exhausted")
		return
	}

	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
	}

	gen := s.gen
	s.reconnectTimer = time.AfterFunc(s.config.ReconnectInterval, func() {
		s.mu.Lock()
		if gen != s.gen || s.disconnected {
			s.mu.Unlock()
			return
		}
		s.attempts++
		attempt := s.attempts
		ReconnectAttempts.Inc()
		s.setStateLocked(StateConnecting)
		s.mu.Unlock()

		s.logger.Info().
			Int("attempt", attempt).
			Int("max", s.config.MaxReconnectAttempts).
			Msg("Reconnecting")

		// A failed attempt re-enters the reconnect path inside dial.
		_ = s.dial(context.Background(), gen)
	})
}

// startHeartbeatLocked starts the per-connection heartbeat ticker.
// Caller must hold s.mu.
func (s *Session) startHeartbeatLocked(gen uint64) {
	s.stopHeartbeatLocked()
	stop := make(chan struct{})
	s.hbStop = stop

	go func() {
		ticker := time.NewTicker(s.config.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if gen != s.gen || s.state != StateConnected || s.conn == nil {
					s.mu.Unlock()
					return
				}
				conn := s.conn
				s.mu.Unlock()

				if err := conn.Ping(); err != nil {
					s.logger.Warn().Err(err).Msg("Heartbeat failed")
					continue
				}
				HeartbeatsSent.Inc()
			}
		}
	}()
}

// stopHeartbeatLocked stops the heartbeat if one is running.
// Caller must hold s.mu.
func (s *Session) stopHeartbeatLocked() {
	if s.hbStop != nil {
		close(s.hbStop)
		s.hbStop = nil
	}
}

// teardownLocked cancels both timers and closes the current connection.
// Caller must hold s.mu.
func (s *Session) teardownLocked() {
	s.stopHeartbeatLocked()
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// setStateLocked transitions the state machine and publishes the change.
// Caller must hold s.mu.
func (s *Session) setStateLocked(state ConnState) {
	if s.state == state {
		return
	}

	s.logger.Debug().
		Str("from", s.state.String()).
		Str("to", state.String()).
		Msg("State transition")

	s.state = state
	StateTransitions.WithLabelValues(state.String()).Inc()

	select {
	case s.states <- state:
	default:
		// Drop the oldest state so the newest is always visible.
		select {
		case <-s.states:
		default:
		}
		select {
		case s.states <- state:
		default:
		}
	}
}

// publish hands a message to subscribers with drop-oldest backpressure.
func (s *Session) publish(m Message) {
	select {
	case s.messages <- m:
	default:
		MessagesDropped.Inc()
		select {
		case <-s.messages:
		default:
		}
		select {
		case s.messages <- m:
		default:
		}
	}
}

// decode attempts the structured envelope and falls back to raw.
func decode(data []byte) Message {
	var m Message
	if err := json.Unmarshal(data, &m); err == nil && m.Type != "" {
		MessagesReceived.WithLabelValues("structured").Inc()
		return m
	}
	MessagesReceived.WithLabelValues("raw").Inc()
	return Message{Raw: data}
}
