package socket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one established bidirectional connection.
type Conn interface {
	// ReadMessage blocks until the next inbound payload or a connection
	// error.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one payload.
	WriteMessage(data []byte) error

	// Ping sends a heartbeat probe.
	Ping() error

	// Close tears the connection down. Unblocks a pending ReadMessage.
	Close() error
}

// Dialer performs the connection handshake. The default implementation is
// backed by gorilla/websocket; tests inject their own.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// WebsocketDialer is the default Dialer.
type WebsocketDialer struct {
	// HandshakeTimeout bounds the dial. Defaults to 10s.
	HandshakeTimeout time.Duration
}

// Dial implements Dialer.
func (d *WebsocketDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &websocketConn{conn: conn}, nil
}

// websocketConn adapts *websocket.Conn to the Conn interface. Writes are
// serialized: gorilla allows only one concurrent writer.
type websocketConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *websocketConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *websocketConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *websocketConn) Ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

func (c *websocketConn) Close() error {
	return c.conn.Close()
}
