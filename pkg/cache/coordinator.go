package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Store is the key-value backend of the coordinator. Entries outlive at most
// their TTL; Del must remove synchronously.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisStore backs the coordinator with Redis.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, val, ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Coordinator is a read-through, write-invalidate cache over per-entity
// snapshots. Reads are best-effort: a cache failure falls back to the source
// of truth. Invalidation is not best-effort; a mutation must not be
// acknowledged while a stale snapshot is still readable, so Invalidate
// propagates its error to the caller.
type Coordinator struct {
	store  Store
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCoordinator(store Store, ttl time.Duration, logger *logrus.Logger) *Coordinator {
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &Coordinator{store: store, ttl: ttl, logger: logger}
}

// GetJSON loads the snapshot under key into dest. The second return is false
// on a miss.
func (c *Coordinator) GetJSON(ctx context.Context, key Key, dest any) (bool, error) {
	b, ok, err := c.store.Get(ctx, key.String())
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.store.Del(ctx, key.String())
		return false, nil
	}
	return true, nil
}

// SetJSON stores a snapshot under key with the fixed TTL.
func (c *Coordinator) SetJSON(ctx context.Context, key Key, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, key.String(), b, c.ttl)
}

// Invalidate synchronously deletes the given entity keys.
func (c *Coordinator) Invalidate(ctx context.Context, keys ...Key) error {
	ks := make([]string, 0, len(keys))
	for _, k := range keys {
		if k.Valid() {
			ks = append(ks, k.String())
		}
	}
	return c.store.Del(ctx, ks...)
}

// Through implements the read path: return the cached snapshot on a hit,
// otherwise fetch from the source of truth and populate the cache. Two
// concurrent misses may both fetch and both populate; the snapshots are
// idempotent so the race is harmless.
func Through[T any](ctx context.Context, c *Coordinator, key Key, fetch func(context.Context) (T, error)) (T, bool, error) {
	var cached T
	hit, err := c.GetJSON(ctx, key, &cached)
	if err != nil && c.logger != nil {
		c.logger.WithError(err).WithField("key", key.String()).Warn("cache read failed")
	}
	if hit {
		return cached, true, nil
	}

	fresh, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	if err := c.SetJSON(ctx, key, fresh); err != nil && c.logger != nil {
		c.logger.WithError(err).WithField("key", key.String()).Warn("cache populate failed")
	}
	return fresh, false, nil
}
