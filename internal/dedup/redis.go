package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "docanchor:result:"

// RedisStore persists records in Redis as JSON, so the duplicate gate
// survives process restarts and is shared between workers.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client. A zero ttl stores records
// without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, hash string) (*Record, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+hash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dedup: redis get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("dedup: decode record %s: %w", hash, err)
	}
	return &rec, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.Hash == "" {
		return errors.New("dedup: record must have a hash")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("dedup: encode record %s: %w", rec.Hash, err)
	}

	if err := s.client.Set(ctx, redisKeyPrefix+rec.Hash, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("dedup: redis set: %w", err)
	}
	return nil
}

// Ping verifies connectivity to the Redis backend.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("dedup: redis ping: %w", err)
	}
	return nil
}
