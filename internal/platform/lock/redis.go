package lock

import (
	"context"
	"fmt"
	"log"
	"time"

	"prof_match/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if we still hold it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

const retryInterval = 50 * time.Millisecond

// RedisLocker is a SET NX PX lock with compare-and-delete release.
type RedisLocker struct {
	rdb  *redis.Client
	wait time.Duration
}

// NewRedisLocker returns a locker that retries acquisition for up to wait.
// A zero wait makes a single attempt.
func NewRedisLocker(rdb *redis.Client, wait time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, wait: wait}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lockValue := uuid.NewString() // Unique value for this lock instance
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, lockValue, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("lock %s busy: %w", key, common.ErrLockFailed)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
		case <-time.After(retryInterval):
		}
	}

	return func() {
		// Release with a fresh context so a cancelled request still frees the key.
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		deleted, err := releaseScript.Run(relCtx, l.rdb, []string{key}, lockValue).Int64()
		if err != nil {
			log.Printf("ERROR: Failed to release lock for key %s: %v", key, err)
		} else if deleted == 0 {
			log.Printf("WARN: Did not release lock %s; it might have expired or been taken by another.", key)
		}
	}, nil
}
