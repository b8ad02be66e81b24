package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter counts hits per key in fixed windows aligned to the epoch.
// Every window has its own redis key.
type RateLimiter struct {
	client RedisClient
	now    func() time.Time
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow records one hit for key and reports whether it is within limit for the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	bucket := windowKey(key, r.now(), window)
	count, err := r.client.Incr(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, bucket, 2*window); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count <= int64(limit), nil
}

func windowKey(key string, now time.Time, window time.Duration) string {
	return fmt.Sprintf("%s:%d", key, now.UnixNano()/int64(window))
}

// UserCommandKey scopes the command limiter to one chat user and command name.
func UserCommandKey(userID int64, command string) string {
	return fmt.Sprintf("cmd_rate:%s:%d", command, userID)
}
