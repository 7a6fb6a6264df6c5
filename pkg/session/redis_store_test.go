package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client. For unit tests we connect to
// localhost; the integration test suite runs against testcontainers.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewRedisStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStore should panic with nil redis client")
		}
	}()
	NewRedisStore(nil, "")
}

func TestRedisStore_SaveLoadClear(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client, "client:session:test")
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v, want absent", ok, err)
	}

	blob := []byte(`{"access_token":"abc"}`)
	if err := store.Save(ctx, blob); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load failed: ok=%v err=%v", ok, err)
	}
	if string(got) != string(blob) {
		t.Errorf("Load = %s, want %s", got, blob)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok, _ := store.Load(ctx); ok {
		t.Error("blob still present after Clear")
	}
}

func TestRedisStore_TTL(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRedisStore(client, "client:session:ttl")
	store.TTL = 100 * time.Millisecond
	ctx := context.Background()

	if err := store.Save(ctx, []byte("x")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if _, ok, _ := store.Load(ctx); ok {
		t.Error("blob should have expired")
	}
}
