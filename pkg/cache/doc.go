// Package cache provides an in-memory response cache with TTL expiry
// and LRU eviction.
//
// The store is a bounded map guarded by a single mutex. Recency is tracked
// with an intrusive list so that eviction is O(1): inserting beyond MaxSize
// removes exactly the least-recently-used entry. Expiry is checked lazily on
// read and swept periodically by a background janitor so that dead entries
// do not pin memory between reads.
//
// # Basic Usage
//
//	store := cache.NewStore(cache.DefaultConfig())
//	defer store.Close()
//
//	key := cache.Key{Path: "/v1/articles", Query: url.Values{"page": []string{"2"}}}
//	store.Set(key.String(), body, 60*time.Second)
//
//	if data, ok := store.Get(key.String()); ok {
//		// cache hit
//	}
//
// # Metrics
//
// The store exports Prometheus metrics:
//
//   - client_cache_hits_total - Cache hits
//   - client_cache_misses_total - Cache misses
//   - client_cache_evictions_total{reason} - Evictions by reason (lru, expired)
//   - client_cache_entries - Current number of entries
//
// A cache miss is not an error: Get returns a boolean, and expired entries
// are reported absent the same way missing ones are.
package cache
