package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key used when none is configured.
const DefaultRedisKey = "client:session"

// RedisStore persists the session blob in Redis so a session survives
// process restarts and can be shared between instances.
type RedisStore struct {
	redis *redis.Client
	key   string

	// TTL bounds how long a persisted blob outlives its last save.
	// Align it with the refresh token lifetime. Zero means no expiry.
	TTL time.Duration
}

// NewRedisStore creates a store on the given Redis client.
func NewRedisStore(redisClient *redis.Client, key string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		redis: redisClient,
		key:   key,
	}
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, blob []byte) error {
	if err := s.redis.Set(ctx, s.key, blob, s.TTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) ([]byte, bool, error) {
	blob, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return blob, true, nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
