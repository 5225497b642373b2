package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another process already owns the lock.
var ErrLockHeld = errors.New("run lock held by another process")

const releaseScript = `
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`

// RunLock is a single-writer guard backed by redis. With a nil client every
// call succeeds, so deployments without redis keep working.
type RunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRunLock creates a lock stored under key that expires after ttl.
func NewRunLock(client *redis.Client, key string, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RunLock{client: client, key: key, ttl: ttl}
}

// Acquire takes the lock for owner.
func (l *RunLock) Acquire(ctx context.Context, owner string) error {
	if l == nil || l.client == nil {
		return nil
	}
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Release drops the lock if owner still holds it.
func (l *RunLock) Release(ctx context.Context, owner string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if err := l.client.Eval(ctx, releaseScript, []string{l.key}, owner).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	return nil
}
