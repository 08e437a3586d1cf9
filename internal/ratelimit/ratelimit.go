package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter stored in redis. A nil *Limiter allows
// everything, so callers need no branching when redis is not configured.
type Limiter struct {
	R      redis.Cmdable
	Limit  int64
	Window time.Duration
	Prefix string
}

func New(r redis.Cmdable, limit int64, window time.Duration) *Limiter {
	return &Limiter{R: r, Limit: limit, Window: window, Prefix: "rl:"}
}

// Allow counts one hit for key and reports whether it is within the limit,
// together with the current count.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	if l == nil || l.R == nil {
		return true, 0, nil
	}
	k := l.Prefix + key
	pipe := l.R.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	n := incr.Val()
	return n <= l.Limit, n, nil
}
