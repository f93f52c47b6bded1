package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrEmpty is returned by Pop when no item arrived before the timeout.
var ErrEmpty = errors.New("queue is empty")

// Queue is a FIFO list of job ids: producers LPUSH, consumers BRPOP.
type Queue struct {
	rdb  *redis.Client
	name string
}

func New(rdb *redis.Client, name string) *Queue {
	return &Queue{rdb: rdb, name: name}
}

func (q *Queue) Name() string { return q.name }

func (q *Queue) Push(ctx context.Context, id string) error {
	return q.rdb.LPush(ctx, q.name, id).Err()
}

// Requeue puts id back at the consuming end so it is retried next.
func (q *Queue) Requeue(ctx context.Context, id string) error {
	return q.rdb.RPush(ctx, q.name, id).Err()
}

// Pop blocks for up to timeout waiting for the next id.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrEmpty
		}
		return "", err
	}
	// res is [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return "", ErrEmpty
	}
	return res[1], nil
}
