// Package cache keeps read-mostly reference data (questions, exams, requirements) in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "reference:"

// Cache loads a value by key, calling fill on a miss.
type Cache interface {
	Load(ctx context.Context, key string, dest interface{}, fill func(ctx context.Context) (interface{}, error)) error
	Invalidate(ctx context.Context, keys ...string) error
}

// RedisCache stores JSON-encoded values with a TTL. Concurrent misses on the
// same key share one fill.
type RedisCache struct {
	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Load(ctx context.Context, key string, dest interface{}, fill func(ctx context.Context) (interface{}, error)) error {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err == nil {
		if err := json.Unmarshal(raw, dest); err == nil {
			return nil
		}
		log.Printf("WARN: Discarding undecodable cache entry %s", key)
	} else if !errors.Is(err, redis.Nil) {
		// Redis trouble should not take reference reads down; fall through to the store.
		log.Printf("WARN: Cache read for %s failed: %v", key, err)
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode cache entry %s: %w", key, err)
		}
		if err := c.rdb.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
			log.Printf("WARN: Cache write for %s failed: %v", key, err)
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dest)
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	return c.rdb.Del(ctx, full...).Err()
}

// Nop always calls fill. Used when caching is disabled.
type Nop struct{}

func (Nop) Load(ctx context.Context, _ string, dest interface{}, fill func(ctx context.Context) (interface{}, error)) error {
	value, err := fill(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (Nop) Invalidate(context.Context, ...string) error { return nil }
