package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter enforces a per-user sliding window over the same redis
// store the cache uses, keyed as ai:ratelimit:{userId}:{windowMinutes}
// (spec §4.4). A backing-store error fails open — callers are allowed
// through rather than blocked by an infrastructure fault.
type RateLimiter struct {
	rdb    redis.Cmdable
	logger *zap.Logger
}

// NewRateLimiter constructs a RateLimiter over a shared redis client.
func NewRateLimiter(rdb redis.Cmdable, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{rdb: rdb, logger: logger}
}

// Allow implements spec §4.4's windowed counter exactly: if the counter
// does not exist, set it to 1 with expiry = window and allow. Else if
// the count is already at or above limit, refuse without incrementing.
// Else increment and allow. On any store error it fails open.
func (r *RateLimiter) Allow(ctx context.Context, userID string, windowMinutes, limit int) (allowed bool, count int) {
	k := fmt.Sprintf("ai:ratelimit:%s:%d", userID, windowMinutes)
	window := time.Duration(windowMinutes) * time.Minute

	current, err := r.rdb.Get(ctx, k).Int()
	if err != nil && err != redis.Nil {
		r.logger.Warn("rate limiter get failed, failing open", zap.String("user_id", userID), zap.Error(err))
		return true, 0
	}

	if err == redis.Nil {
		if err := r.rdb.Set(ctx, k, 1, window).Err(); err != nil {
			r.logger.Warn("rate limiter set failed, failing open", zap.String("user_id", userID), zap.Error(err))
			return true, 0
		}
		return true, 1
	}

	if current >= limit {
		return false, current
	}

	next, err := r.rdb.Incr(ctx, k).Result()
	if err != nil {
		r.logger.Warn("rate limiter incr failed, failing open", zap.String("user_id", userID), zap.Error(err))
		return true, current
	}
	return true, int(next)
}
