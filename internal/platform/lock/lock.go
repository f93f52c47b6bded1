// Package lock serializes work per key: per phone number during registration,
// per applicant during answer submission, and globally for catalog imports.
package lock

import (
	"context"
	"time"
)

// Locker acquires a named lock. The returned release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// WithLock runs fn while holding key.
func WithLock(ctx context.Context, l Locker, key string, ttl time.Duration, fn func() error) error {
	release, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func ApplicantKey(applicantID string) string { return "applicant:" + applicantID }

func PhoneKey(phone string) string { return "applicant-phone:" + phone }
