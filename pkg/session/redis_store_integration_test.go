//go:build integration

package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a Redis container and returns a client.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisStore_Integration_SessionRoundTrip(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	store := NewRedisStore(client, "")
	ctx := context.Background()

	sess := Session{
		AccessToken:  "integration-access",
		RefreshToken: "integration-refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
		User:         User{ID: "user-7", Email: "it@example.com"},
	}
	blob, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}

	if err := store.Save(ctx, blob); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}

	var loaded Session
	if err := json.Unmarshal(got, &loaded); err != nil {
		t.Fatalf("unmarshal loaded blob: %v", err)
	}
	if loaded.AccessToken != sess.AccessToken || loaded.User.ID != sess.User.ID {
		t.Errorf("loaded session = %+v, want %+v", loaded, sess)
	}
}

func TestRedisStore_Integration_ManagerResume(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	store := NewRedisStore(client, "")
	ctx := context.Background()

	sess := Session{
		AccessToken:  "resume-access",
		RefreshToken: "resume-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         User{ID: "user-8"},
	}
	blob, _ := json.Marshal(sess)
	if err := store.Save(ctx, blob); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m, err := NewManager(&fakeAPI{sessionTTL: time.Hour}, store, DefaultConfig())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	defer m.Close()

	if !m.IsAuthenticated() {
		t.Error("manager should resume the persisted session")
	}
}
