package cache

import (
	"fmt"
	"testing"
	"time"
)

// newTestStore creates a store without a janitor so tests control expiry.
func newTestStore(t *testing.T, maxSize int) *Store {
	t.Helper()

	s := NewStore(Config{
		MaxSize:       maxSize,
		DefaultTTL:    time.Minute,
		SweepInterval: 0,
	})
	t.Cleanup(s.Close)
	return s
}

func TestStore_SetAndGet(t *testing.T) {
	s := newTestStore(t, 10)

	s.Set("a", []byte("value-a"), time.Minute)

	got, ok := s.Get("a")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != "value-a" {
		t.Errorf("got %q, want %q", got, "value-a")
	}
}

func TestStore_Get_Miss(t *testing.T) {
	s := newTestStore(t, 10)

	if _, ok := s.Get("missing"); ok {
		t.Error("expected cache miss for unknown key")
	}
}

func TestStore_Get_Expired(t *testing.T) {
	s := newTestStore(t, 10)

	s.Set("a", []byte("1"), 100*time.Millisecond)

	if _, ok := s.Get("a"); !ok {
		t.Fatal("entry should be valid immediately after set")
	}

	time.Sleep(150 * time.Millisecond)

	if _, ok := s.Get("a"); ok {
		t.Error("entry should be absent after TTL elapsed")
	}

	// The expired read must also have removed the entry.
	stats := s.Stats()
	if stats.Total != 0 {
		t.Errorf("expected 0 entries after expired read, got %d", stats.Total)
	}
}

func TestStore_Set_Overwrite(t *testing.T) {
	s := newTestStore(t, 10)

	s.Set("a", []byte("old"), time.Minute)
	s.Set("a", []byte("new"), time.Minute)

	got, ok := s.Get("a")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != "new" {
		t.Errorf("got %q, want %q", got, "new")
	}

	if total := s.Stats().Total; total != 1 {
		t.Errorf("overwrite should not grow the store, got %d entries", total)
	}
}

func TestStore_LRUEviction(t *testing.T) {
	s := newTestStore(t, 3)

	s.Set("a", []byte("1"), time.Minute)
	s.Set("b", []byte("2"), time.Minute)
	s.Set("c", []byte("3"), time.Minute)

	// Inserting a fourth key evicts exactly the least-recently-used ("a").
	s.Set("d", []byte("4"), time.Minute)

	if _, ok := s.Get("a"); ok {
		t.Error("expected oldest entry to be evicted")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := s.Get(key); !ok {
			t.Errorf("entry %q should have survived eviction", key)
		}
	}
}

func TestStore_LRUEviction_ReadRefreshesRecency(t *testing.T) {
	s := newTestStore(t, 3)

	s.Set("a", []byte("1"), time.Minute)
	s.Set("b", []byte("2"), time.Minute)
	s.Set("c", []byte("3"), time.Minute)

	// Reading "a" makes "b" the LRU candidate.
	if _, ok := s.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	s.Set("d", []byte("4"), time.Minute)

	if _, ok := s.Get("b"); ok {
		t.Error("expected b to be evicted after a was refreshed by read")
	}
	if _, ok := s.Get("a"); !ok {
		t.Error("recently read entry should not be evicted")
	}
}

func TestStore_SizeNeverExceedsMax(t *testing.T) {
	const maxSize = 5
	s := newTestStore(t, maxSize)

	for i := 0; i < 50; i++ {
		s.Set(fmt.Sprintf("key-%d", i), []byte("v"), time.Minute)
		if total := s.Stats().Total; total > maxSize {
			t.Fatalf("store grew to %d entries, max is %d", total, maxSize)
		}
	}
}

func TestStore_Invalidate(t *testing.T) {
	s := newTestStore(t, 10)

	s.Set("a", []byte("1"), time.Minute)
	s.Invalidate("a")

	if _, ok := s.Get("a"); ok {
		t.Error("invalidated entry should be absent")
	}
}

func TestStore_InvalidatePrefix(t *testing.T) {
	s := newTestStore(t, 10)

	s.Set("api:v1/articles:page=1", []byte("1"), time.Minute)
	s.Set("api:v1/articles:page=2", []byte("2"), time.Minute)
	s.Set("api:v1/users", []byte("3"), time.Minute)

	removed := s.InvalidatePrefix("api:v1/articles")
	if removed != 2 {
		t.Errorf("expected 2 entries removed, got %d", removed)
	}

	if _, ok := s.Get("api:v1/users"); !ok {
		t.Error("entry outside the prefix should survive")
	}
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t, 10)

	s.Set("a", []byte("1"), time.Minute)
	s.Set("b", []byte("2"), time.Minute)
	s.Clear()

	stats := s.Stats()
	if stats.Total != 0 {
		t.Errorf("expected empty store after clear, got %d entries", stats.Total)
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t, 10)

	s.Set("valid", []byte("1"), time.Minute)
	s.Set("expired", []byte("2"), 50*time.Millisecond)
	time.Sleep(80 * time.Millisecond)

	stats := s.Stats()
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.Valid != 1 {
		t.Errorf("Valid = %d, want 1", stats.Valid)
	}
	if stats.Expired != 1 {
		t.Errorf("Expired = %d, want 1", stats.Expired)
	}
	if stats.MaxSize != 10 {
		t.Errorf("MaxSize = %d, want 10", stats.MaxSize)
	}
}

func TestStore_JanitorSweepsExpired(t *testing.T) {
	s := NewStore(Config{
		MaxSize:       10,
		DefaultTTL:    time.Minute,
		SweepInterval: 30 * time.Millisecond,
	})
	defer s.Close()

	s.Set("a", []byte("1"), 20*time.Millisecond)
	s.Set("b", []byte("2"), time.Minute)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.Stats().Total == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("janitor did not sweep expired entry, stats: %+v", s.Stats())
}
