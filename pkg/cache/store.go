package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the cache store configuration.
type Config struct {
	// MaxSize is the maximum number of entries held at once.
	MaxSize int

	// DefaultTTL is used when Set is called with a non-positive TTL.
	DefaultTTL time.Duration

	// SweepInterval is how often the background janitor removes expired
	// entries. A non-positive value disables the janitor.
	SweepInterval time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:       1000,
		DefaultTTL:    60 * time.Second,
		SweepInterval: 30 * time.Second,
	}
}

// Stats is a snapshot of the store contents.
type Stats struct {
	// Total is the number of entries currently held, expired or not.
	Total int

	// Valid is the number of entries that have not expired.
	Valid int

	// Expired is the number of entries that have expired but have not
	// been swept or read yet.
	Expired int

	// MaxSize is the configured capacity.
	MaxSize int
}

// node is the recency list payload.
type node struct {
	key   string
	entry Entry
}

// Store is an in-memory key/value cache with TTL expiry and LRU eviction.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	recency *list.List // front = most recently used

	config Config
	logger zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewStore creates a new cache store and starts its janitor.
func NewStore(cfg Config) *Store {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultConfig().MaxSize
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultConfig().DefaultTTL
	}

	s := &Store{
		entries: make(map[string]*list.Element),
		recency: list.New(),
		config:  cfg,
		logger:  log.With().Str("component", "cache").Logger(),
		done:    make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		go s.janitor()
	}

	return s
}

// Get retrieves a cached value. Returns false on a miss. An expired entry
// is removed and reported absent; a hit refreshes the entry's recency.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		CacheMisses.Inc()
		return nil, false
	}

	n := el.Value.(*node)
	if n.entry.IsExpired() {
		s.removeLocked(el, "expired")
		CacheMisses.Inc()
		return nil, false
	}

	s.recency.MoveToFront(el)
	CacheHits.Inc()
	return n.entry.Value, true
}

// Set inserts or overwrites an entry. If the insert would exceed MaxSize,
// the least-recently-used entry is evicted first. A non-positive ttl falls
// back to the configured DefaultTTL. Both reads and writes refresh recency.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.config.DefaultTTL
	}

	now := time.Now()
	entry := Entry{
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		el.Value.(*node).entry = entry
		s.recency.MoveToFront(el)
		return
	}

	if len(s.entries) >= s.config.MaxSize {
		s.evictOldestLocked()
	}

	el := s.recency.PushFront(&node{key: key, entry: entry})
	s.entries[key] = el
	CacheEntries.Set(float64(len(s.entries)))

	s.logger.Debug().
		Str("key", key).
		Dur("ttl", ttl).
		Msg("Cached entry")
}

// Invalidate removes a single entry.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		s.removeLocked(el, "invalidated")
	}
}

// InvalidatePrefix removes every entry whose key starts with the given
// prefix. Used after mutating requests to drop cached reads of the
// affected resource.
func (s *Store) InvalidatePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, el := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.removeLocked(el, "invalidated")
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug().
			Str("prefix", prefix).
			Int("removed", removed).
			Msg("Invalidated cache entries by prefix")
	}
	return removed
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.recency.Init()
	CacheEntries.Set(0)
}

// Stats returns a snapshot of the store contents.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Total:   len(s.entries),
		MaxSize: s.config.MaxSize,
	}
	for _, el := range s.entries {
		if el.Value.(*node).entry.IsExpired() {
			stats.Expired++
		} else {
			stats.Valid++
		}
	}
	return stats
}

// Close stops the background janitor. The store remains usable afterwards,
// but expired entries are then only removed lazily on read.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// janitor periodically sweeps expired entries so that dead entries do not
// hold memory until their next read.
func (s *Store) janitor() {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes all expired entries.
func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	swept := 0
	for _, el := range s.entries {
		if el.Value.(*node).entry.IsExpired() {
			s.removeLocked(el, "expired")
			swept++
		}
	}

	if swept > 0 {
		s.logger.Debug().
			Int("swept", swept).
			Int("remaining", len(s.entries)).
			Msg("Swept expired cache entries")
	}
}

// evictOldestLocked evicts exactly one least-recently-used entry.
// Caller must hold s.mu.
func (s *Store) evictOldestLocked() {
	el := s.recency.Back()
	if el == nil {
		return
	}
	key := el.Value.(*node).key
	s.removeLocked(el, "lru")

	s.logger.Debug().
		Str("key", key).
		Msg("Evicted least-recently-used entry")
}

// removeLocked removes an entry from the map and the recency list.
// Caller must hold s.mu.
func (s *Store) removeLocked(el *list.Element, reason string) {
	n := el.Value.(*node)
	delete(s.entries, n.key)
	s.recency.Remove(el)
	CacheEvictions.WithLabelValues(reason).Inc()
	CacheEntries.Set(float64(len(s.entries)))
}
