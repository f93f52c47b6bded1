package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"prof_match/internal/common"
)

// Local is an in-process Locker for single-instance deployments.
// The ttl argument is ignored: a key is held until released.
type Local struct {
	mu   sync.Mutex
	keys map[string]*localEntry
	wait time.Duration
}

type localEntry struct {
	ch   chan struct{} // buffered(1); holding the token means holding the lock
	refs int
}

func NewLocal(wait time.Duration) *Local {
	return &Local{keys: make(map[string]*localEntry), wait: wait}
}

func (l *Local) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	e, ok := l.keys[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, e)
		return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
	case <-timer.C:
		l.drop(key, e)
		return nil, fmt.Errorf("lock %s busy: %w", key, common.ErrLockFailed)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.drop(key, e)
		})
	}, nil
}

func (l *Local) drop(key string, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}
