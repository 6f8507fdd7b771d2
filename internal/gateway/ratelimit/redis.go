package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lua scripts are compiled once at package initialization. The fixed-window
// check must be atomic per key, and a GET followed by an INCR from the client
// would race against concurrent requests for the same identity.
var hitScript = redis.NewScript(`
	local limit = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])

	local count = tonumber(redis.call('GET', KEYS[1]) or '0')
	if count >= limit then
		-- Limited: do not increment past the limit.
		return {count, redis.call('PTTL', KEYS[1]), 1}
	end

	count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], window_ms)
	end
	return {count, redis.call('PTTL', KEYS[1]), 0}
`)

// RedisStore is a Store backed by Redis, for deployments running more than
// one gateway instance. Window expiry rides on Redis key TTLs, so Sweep is
// a no-op here.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore creates a Redis-backed store. Keys are namespaced under
// the given prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("ratelimit: redis client is required")
	}
	if prefix == "" {
		return nil, errors.New("ratelimit: key prefix is required")
	}
	return &RedisStore{client: client, keyPrefix: prefix}, nil
}

func (s *RedisStore) buildKey(key string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, key)
}

// Get returns the entry for key. Redis drops expired keys itself, so a
// missing key means no live window.
func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	fullKey := s.buildKey(key)

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, fullKey)
	ttlCmd := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Entry{}, false, fmt.Errorf("ratelimit get: %w", err)
	}

	count, err := getCmd.Int()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit get: %w", err)
	}

	ttl, err := ttlCmd.Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit get ttl: %w", err)
	}
	if ttl < 0 {
		return Entry{}, false, nil
	}

	return Entry{Count: count, ResetAt: time.Now().Add(ttl)}, true, nil
}

// Set stores the entry for key, expiring it at the entry's reset time.
func (s *RedisStore) Set(ctx context.Context, key string, e Entry) error {
	ttl := time.Until(e.ResetAt)
	if ttl <= 0 {
		return s.Delete(ctx, key)
	}
	if err := s.client.Set(ctx, s.buildKey(key), e.Count, ttl).Err(); err != nil {
		return fmt.Errorf("ratelimit set: %w", err)
	}
	return nil
}

// Delete removes the entry for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit delete: %w", err)
	}
	return nil
}

// Hit runs one fixed-window check atomically via a Lua script.
func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (Entry, bool, error) {
	result, err := hitScript.Run(ctx, s.client, []string{s.buildKey(key)},
		limit, window.Milliseconds()).Slice()
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit hit: %w", err)
	}

	count := int(result[0].(int64))
	ttlMs := result[1].(int64)
	limited := result[2].(int64) == 1

	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}

	e := Entry{
		Count:   count,
		ResetAt: time.Now().Add(time.Duration(ttlMs) * time.Millisecond),
	}
	return e, limited, nil
}

// Sweep is a no-op: Redis expires window keys on its own.
func (s *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}
