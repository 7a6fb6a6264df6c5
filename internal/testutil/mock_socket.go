package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// MockSocket is a websocket echo server for testing persistent
// connections. It upgrades every request, echoes text messages back, and
// answers pings per the protocol default.
type MockSocket struct {
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu           sync.Mutex
	conns        []*websocket.Conn
	ConnectCount int
	LastHeader   http.Header
	RejectNext   bool
}

// NewMockSocket creates a started mock websocket server.
func NewMockSocket() *MockSocket {
	mock := &MockSocket{}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the ws:// URL of the mock server.
func (m *MockSocket) URL() string {
	return "ws" + strings.TrimPrefix(m.server.URL, "http")
}

// Close drops all connections and shuts the server down.
func (m *MockSocket) Close() {
	m.DropConnections()
	m.server.Close()
}

// DropConnections closes every live connection, simulating a lost link.
func (m *MockSocket) DropConnections() {
	m.mu.Lock()
	conns := m.conns
	m.conns = nil
	m.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// Broadcast sends a text message to every live connection.
func (m *MockSocket) Broadcast(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, conn := range m.conns {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// GetConnectCount returns the number of accepted connections.
func (m *MockSocket) GetConnectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ConnectCount
}

func (m *MockSocket) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.LastHeader = r.Header.Clone()
	if m.RejectNext {
		m.RejectNext = false
		m.mu.Unlock()
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	m.mu.Unlock()

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	m.mu.Lock()
	m.ConnectCount++
	m.conns = append(m.conns, conn)
	m.mu.Unlock()

	go func() {
		defer conn.Close()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage {
				conn.WriteMessage(websocket.TextMessage, data)
			}
		}
	}()
}
