package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/calder-io/resilient-client/internal/testutil"
	"github.com/calder-io/resilient-client/pkg/client"
	"github.com/calder-io/resilient-client/pkg/session"
	"github.com/calder-io/resilient-client/pkg/socket"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newClient(t *testing.T, mock *testutil.MockAPI, store session.Store) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig(mock.URL())
	cfg.SessionStore = store

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// TestFullRequestLifecycle walks the complete flow: login, cached reads,
// server-side token revocation with transparent recovery, and logout.
func TestFullRequestLifecycle(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/articles", testutil.NewJSONResponse(`{"articles": []}`))

	c := newClient(t, mock, nil)
	ctx := context.Background()

	user, err := c.Auth().Login(ctx, session.Credentials{
		Email:    "test@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Email != "test@example.com" {
		t.Errorf("Login user email = %s, want test@example.com", user.Email)
	}

	// Cached read: the second call must not reach the server.
	mock.Reset()
	if _, err := c.Get(ctx, "/articles", nil); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, err := c.Get(ctx, "/articles", nil); err != nil {
		t.Fatalf("Cached Get failed: %v", err)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("Server saw %d requests, want 1", got)
	}

	// Server-side revocation: the next request recovers via one refresh.
	mock.RevokeTokens()
	if _, err := c.Get(ctx, "/profile", nil); err != nil {
		t.Fatalf("Get after revocation failed: %v", err)
	}
	if got := mock.GetRefreshCount(); got != 1 {
		t.Errorf("Refresh calls = %d, want 1", got)
	}

	c.Auth().Logout(ctx)
	if c.Auth().IsAuthenticated() {
		t.Error("Still authenticated after logout")
	}
}

// TestSessionSurvivesRestartWithRedis persists the session in Redis and
// verifies a fresh client resumes it without logging in again.
func TestSessionSurvivesRestartWithRedis(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockAPI()
	defer mock.Close()

	store := session.NewRedisStore(redisClient, session.DefaultRedisKey)

	first := newClient(t, mock, store)
	ctx := context.Background()

	if _, err := first.Auth().Login(ctx, session.Credentials{
		Email:    "test@example.com",
		Password: "secret",
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	token, err := first.Auth().Token()
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}

	// A second client sharing the store starts out authenticated.
	second := newClient(t, mock, store)
	if !second.Auth().IsAuthenticated() {
		t.Fatal("Resumed client should be authenticated")
	}
	resumed, err := second.Auth().Token()
	if err != nil {
		t.Fatalf("Resumed Token failed: %v", err)
	}
	if resumed != token {
		t.Errorf("Resumed token = %s, want %s", resumed, token)
	}

	if _, err := second.Get(ctx, "/profile", nil); err != nil {
		t.Errorf("Resumed client request failed: %v", err)
	}
}

// TestSocketCarriesTokenAndRecovers connects the socket through the
// client, verifies the bearer token on the handshake, and exercises
// reconnection after a dropped link.
func TestSocketCarriesTokenAndRecovers(t *testing.T) {
	mockAPI := testutil.NewMockAPI()
	defer mockAPI.Close()
	mockSocket := testutil.NewMockSocket()
	defer mockSocket.Close()

	c := newClient(t, mockAPI, nil)
	ctx := context.Background()

	if _, err := c.Auth().Login(ctx, session.Credentials{
		Email:    "test@example.com",
		Password: "secret",
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	token, _ := c.Auth().Token()

	cfg := socket.DefaultConfig("")
	cfg.ReconnectInterval = 50 * time.Millisecond
	cfg.HeartbeatInterval = time.Hour

	sess, err := c.OpenSocket(ctx, mockSocket.URL(), cfg)
	if err != nil {
		t.Fatalf("OpenSocket failed: %v", err)
	}
	defer sess.Disconnect()

	auth := mockSocket.LastHeader.Get("Authorization")
	if !strings.HasSuffix(auth, token) {
		t.Errorf("Handshake Authorization = %q, want bearer %s", auth, token)
	}

	// Echo round-trip.
	if err := sess.Send(map[string]string{"type": "ping-test"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	select {
	case msg := <-sess.Messages():
		if msg.Type != "ping-test" {
			t.Errorf("Echoed message type = %q, want ping-test", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for echo")
	}

	// Drop the link; the session must reconnect on its own.
	mockSocket.DropConnections()

	deadline := time.After(2 * time.Second)
	for mockSocket.GetConnectCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("Reconnect did not happen: %d connects", mockSocket.GetConnectCount())
		case <-time.After(20 * time.Millisecond):
		}
	}
}
