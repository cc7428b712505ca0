package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultThrottleWindow = 15 * time.Minute

// LoginThrottle counts failed logins per username in a fixed window.
// Key format: login_failures:<username>, matched case-sensitively like the
// usernames themselves.
//
// The window starts at the first failure and is not extended by later ones.
// A non-positive limit disables throttling without touching Redis.
type LoginThrottle struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
}

// NewLoginThrottle creates a LoginThrottle wrapping the given Redis client.
func NewLoginThrottle(client redis.Cmdable, limit int, window time.Duration) *LoginThrottle {
	if window <= 0 {
		window = defaultThrottleWindow
	}
	return &LoginThrottle{client: client, limit: int64(limit), window: window}
}

func (t *LoginThrottle) enabled() bool { return t.limit > 0 }

// Allowed reports whether username is still below the failure limit.
func (t *LoginThrottle) Allowed(ctx context.Context, username string) (bool, error) {
	if !t.enabled() {
		return true, nil
	}
	n, err := t.client.Get(ctx, t.key(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, nil
		}
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n < t.limit, nil
}

// RecordFailure increments the counter and starts the window on first use.
func (t *LoginThrottle) RecordFailure(ctx context.Context, username string) error {
	if !t.enabled() {
		return nil
	}
	key := t.key(username)
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, t.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username string) error {
	if !t.enabled() {
		return nil
	}
	return t.client.Del(ctx, t.key(username)).Err()
}

func (t *LoginThrottle) key(username string) string {
	return "login_failures:" + username
}
