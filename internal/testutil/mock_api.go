// Package testutil provides mock servers for testing the client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior of a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock API server. It implements the credential
// endpoints out of the box: /auth/login and /auth/register issue a token
// pair, /auth/refresh rotates it, /auth/logout revokes it. Data endpoints
// reject requests without a currently valid bearer token.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	tokenSeq     int
	validTokens  map[string]bool
	tokenTTL     time.Duration
	refreshDelay time.Duration

	// Tracking
	RequestCount      int
	RefreshCount      int
	LastRequestHeader http.Header
}

// NewMockAPI creates a started mock API server. Issued tokens are reported
// as valid for an hour unless SetTokenTTL changes that.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:    make(map[string]func(w http.ResponseWriter, r *http.Request)),
		validTokens: make(map[string]bool),
		tokenTTL:    time.Hour,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.RefreshCount = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetTokenTTL sets the expires_in reported with issued tokens.
func (m *MockAPI) SetTokenTTL(ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenTTL = ttl
}

// SetRefreshDelay makes /auth/refresh sleep before answering. Useful for
// holding a refresh in flight while concurrent callers pile up.
func (m *MockAPI) SetRefreshDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshDelay = d
}

// RevokeTokens invalidates every issued access token, so data requests
// start failing with 401 until the client refreshes.
func (m *MockAPI) RevokeTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validTokens = make(map[string]bool)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetRefreshCount returns the number of refresh calls made to the server.
func (m *MockAPI) GetRefreshCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RefreshCount
}

// authorized reports whether the request carries a currently valid token.
func (m *MockAPI) authorized(r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validTokens[token]
}

// issueTokens mints a new access/refresh pair and writes the credential
// response.
func (m *MockAPI) issueTokens(w http.ResponseWriter) {
	m.mu.Lock()
	m.tokenSeq++
	access := fmt.Sprintf("access-%d", m.tokenSeq)
	refresh := fmt.Sprintf("refresh-%d", m.tokenSeq)
	m.validTokens[access] = true
	ttl := m.tokenTTL
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"expires_in":    int64(ttl.Seconds()),
		"user": map[string]string{
			"id":    "user-1",
			"email": "test@example.com",
			"name":  "Test User",
		},
	})
}

// defaultHandler implements the credential endpoints and a token-gated
// default data endpoint.
func (m *MockAPI) defaultHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/login", "/auth/register":
		m.issueTokens(w)
	case "/auth/refresh":
		m.mu.Lock()
		m.RefreshCount++
		delay := m.refreshDelay
		m.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		m.issueTokens(w)
	case "/auth/logout":
		w.WriteHeader(http.StatusNoContent)
	default:
		if !m.authorized(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "invalid token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
}

// NewJSONResponse creates a 200 OK response with a JSON body.
func NewJSONResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}
