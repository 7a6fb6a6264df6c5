package cache

import (
	"time"
)

// Entry represents a cached value. Entries are owned exclusively by the
// store: they are replaced wholesale on overwrite and removed on expiry or
// eviction.
type Entry struct {
	// Value is the cached payload.
	Value []byte

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time

	// ExpiresAt is when the entry becomes stale.
	ExpiresAt time.Time
}

// IsExpired returns true if the entry has passed its expiry time.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the time until expiration. Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.ExpiresAt)
	if ttl < 0 {
		return 0
	}
	return ttl
}
