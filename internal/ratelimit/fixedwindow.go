package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter on Redis: INCR per key, EXPIRE on the
// first hit. The window boundary effect (a burst straddling two windows) is
// acceptable for payment endpoints where the limit is a safety net, not a
// fairness guarantee.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow counts a request against the key's current window. It returns
// whether the request is allowed, how many requests remain, and when the
// window resets.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if max <= 0 || window <= 0 {
		return true, max, time.Now(), nil
	}
	full := l.Prefix + key

	pipe := l.Client.TxPipeline()
	count := pipe.Incr(ctx, full)
	pipe.ExpireNX(ctx, full, window)
	ttl := pipe.PTTL(ctx, full)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	n := int(count.Val())
	resetAt := time.Now().Add(window)
	if d := ttl.Val(); d > 0 {
		resetAt = time.Now().Add(d)
	}
	remaining := max - n
	if remaining < 0 {
		remaining = 0
	}
	return n <= max, remaining, resetAt, nil
}
