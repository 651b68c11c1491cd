package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window request counter for the admin API.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	return count <= int64(limit), nil
}

func ClientKey(client string, window time.Duration, now time.Time) string {
	return fmt.Sprintf("tgauto:api_rl:%s:%d", client, now.Unix()/int64(window.Seconds()))
}
