package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Typed errors returned by the Manager.
var (
	// ErrNotAuthenticated is returned when an operation needs a session
	// and none is held.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshFailed wraps a failed token refresh. The session is
	// cleared when this is returned.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// API is the network side of credential management. The facade wires it to
// the request scheduler; tests provide fakes.
type API interface {
	Login(ctx context.Context, creds Credentials) (*Session, error)
	Register(ctx context.Context, creds Credentials) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, accessToken string) error
}

// Config holds the manager configuration.
type Config struct {
	// LeadTime is how long before actual expiry a token is treated as
	// expiring: the proactive refresh timer fires at ExpiresAt - LeadTime,
	// and IsAuthenticated turns false at the same point.
	LeadTime time.Duration

	// StateBuffer is the capacity of the state change channel.
	StateBuffer int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		LeadTime:    30 * time.Second,
		StateBuffer: 16,
	}
}

// refreshCall is one in-flight refresh shared by all concurrent callers.
type refreshCall struct {
	done chan struct{}
	err  error
}

// Manager owns the Session. All methods are safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	session  *Session
	inflight *refreshCall

	api    API
	store  Store
	config Config
	logger zerolog.Logger

	refreshTimer *time.Timer
	states       chan State
}

// NewManager creates a manager and resumes a persisted session if the
// store holds a usable one.
func NewManager(api API, store Store, cfg Config) (*Manager, error) {
	if api == nil {
		return nil, fmt.Errorf("api is required")
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if cfg.LeadTime <= 0 {
		cfg.LeadTime = DefaultConfig().LeadTime
	}
	if cfg.StateBuffer <= 0 {
		cfg.StateBuffer = DefaultConfig().StateBuffer
	}

	m := &Manager{
		api:    api,
		store:  store,
		config: cfg,
		logger: log.With().Str("component", "session").Logger(),
		states: make(chan State, cfg.StateBuffer),
	}

	m.resume()
	return m, nil
}

// resume loads a persisted session blob, if any.
func (m *Manager) resume() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	blob, ok, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to load persisted session")
		return
	}
	if !ok {
		return
	}

	var sess Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		m.logger.Warn().Err(err).Msg("Discarding corrupt persisted session")
		_ = m.store.Clear(ctx)
		return
	}
	if sess.RefreshToken == "" {
		return
	}

	m.mu.Lock()
	m.session = &sess
	m.armRefreshLocked()
	m.mu.Unlock()

	m.logger.Info().
		Str("user_id", sess.User.ID).
		Time("expires_at", sess.ExpiresAt).
		Msg("Resumed persisted session")
}

// Login authenticates with the given credentials and replaces the current
// session atomically.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*User, error) {
	return m.authenticate(ctx, "login", creds, m.api.Login)
}

// Register creates an account and replaces the current session atomically.
func (m *Manager) Register(ctx context.Context, creds Credentials) (*User, error) {
	return m.authenticate(ctx, "register", creds, m.api.Register)
}

func (m *Manager) authenticate(ctx context.Context, op string, creds Credentials,
	call func(context.Context, Credentials) (*Session, error)) (*User, error) {

	sess, err := call(ctx, creds)
	if err != nil {
		Logins.WithLabelValues(op, "failure").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	m.setSessionLocked(ctx, sess)
	m.mu.Unlock()

	Logins.WithLabelValues(op, "success").Inc()
	m.logger.Info().
		Str("operation", op).
		Str("user_id", sess.User.ID).
		Time("expires_at", sess.ExpiresAt).
		Msg("Authenticated")

	user := sess.User
	return &user, nil
}

// IsAuthenticated reports whether a usable session is held: an access
// token is present and now + LeadTime is before its expiry.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Usable(m.config.LeadTime)
}

// Token returns the current access token, or ErrNotAuthenticated.
func (m *Manager) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil || m.session.AccessToken == "" {
		return "", ErrNotAuthenticated
	}
	return m.session.AccessToken, nil
}

// CurrentUser returns the authenticated user, or nil.
func (m *Manager) CurrentUser() *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	user := m.session.User
	return &user
}

// Refresh exchanges the refresh token for a new session. Concurrent calls
// are coalesced: at most one refresh network call is in flight at a time,
// and every caller observes that call's outcome. On failure the session is
// cleared and ErrRefreshFailed is returned.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if call := m.inflight; call != nil {
		m.mu.Unlock()
		RefreshesCoalesced.Inc()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if m.session == nil || m.session.RefreshToken == "" {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	refreshToken := m.session.RefreshToken
	m.mu.Unlock()

	sess, err := m.api.Refresh(ctx, refreshToken)

	m.mu.Lock()
	m.inflight = nil
	if err != nil {
		Refreshes.WithLabelValues("failure").Inc()
		m.logger.Warn().Err(err).Msg("Refresh failed, clearing session")
		m.clearLocked(ctx)
		call.err = fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	} else {
		Refreshes.WithLabelValues("success").Inc()
		m.setSessionLocked(ctx, sess)
		m.logger.Debug().
			Time("expires_at", sess.ExpiresAt).
			Msg("Session refreshed")
	}
	m.mu.Unlock()

	close(call.done)
	return call.err
}

// Logout clears the session unconditionally. The server-side notification
// is best effort: its failure is logged, never returned.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	token := ""
	if m.session != nil {
		token = m.session.AccessToken
	}
	m.mu.Unlock()

	if token != "" {
		if err := m.api.Logout(ctx, token); err != nil {
			m.logger.Warn().Err(err).Msg("Server-side logout failed, clearing locally anyway")
		}
	}

	m.mu.Lock()
	m.clearLocked(ctx)
	m.mu.Unlock()

	m.logger.Info().Msg("Logged out")
}

// Clear drops the session and the persisted blob without notifying the
// server. Used when a request still fails authorization after a refresh.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked(ctx)
}

// StateChanges returns the authentication state channel. Buffered with
// drop-oldest backpressure: a slow consumer sees the most recent states.
func (m *Manager) StateChanges() <-chan State {
	return m.states
}

// Close cancels the proactive refresh timer. The session itself is kept;
// call Logout first for a full teardown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
}

// setSessionLocked replaces the session wholesale, persists it, re-arms
// the proactive refresh timer, and publishes the state change.
// Caller must hold m.mu.
func (m *Manager) setSessionLocked(ctx context.Context, sess *Session) {
	m.session = sess
	m.armRefreshLocked()

	blob, err := json.Marshal(sess)
	if err == nil {
		err = m.store.Save(ctx, blob)
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to persist session")
	}

	Authenticated.Set(1)
	user := sess.User
	m.emitState(State{Authenticated: true, User: &user})
}

// clearLocked drops the session, the persisted blob, and the refresh
// timer, and publishes the unauthenticated state. Caller must hold m.mu.
func (m *Manager) clearLocked(ctx context.Context) {
	m.session = nil
	m.stopTimerLocked()

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear persisted session")
	}

	Authenticated.Set(0)
	m.emitState(State{Authenticated: false})
}

// armRefreshLocked schedules the proactive refresh at ExpiresAt - LeadTime.
// Caller must hold m.mu.
func (m *Manager) armRefreshLocked() {
	m.stopTimerLocked()
	if m.session == nil || m.session.RefreshToken == "" {
		return
	}

	fireIn := time.Until(m.session.ExpiresAt.Add(-m.config.LeadTime))
	if fireIn < 0 {
		fireIn = 0
	}

	m.refreshTimer = time.AfterFunc(fireIn, func() {
		m.logger.Debug().Msg("Proactive refresh timer fired")
		if err := m.Refresh(context.Background()); err != nil {
			m.logger.Warn().Err(err).Msg("Proactive refresh failed")
		}
	})

	m.logger.Debug().
		Dur("fire_in", fireIn).
		Msg("Proactive refresh scheduled")
}

// stopTimerLocked cancels the proactive refresh timer if armed.
// Caller must hold m.mu.
func (m *Manager) stopTimerLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
}

// emitState publishes a state change with drop-oldest backpressure.
func (m *Manager) emitState(s State) {
	select {
	case m.states <- s:
	default:
		select {
		case <-m.states:
		default:
		}
		select {
		case m.states <- s:
		default:
		}
	}
}
