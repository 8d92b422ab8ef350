// Package ratelimit throttles registration attempts per client.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RedisLimiter is a sliding window limiter shared by every server instance.
// Each key is a sorted set of request timestamps; a Lua script trims expired
// entries, counts, and adds the new entry atomically.
type RedisLimiter struct {
	client *redis.Client
	logger *slog.Logger
	script *redis.Script
	limit  int
	window time.Duration
}

// 1. Remove entries older than the window
// 2. Count what is left
// 3. Under the limit: add this request and return 1; otherwise return 0
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('PEXPIRE', key, window + 1000)
    return 1
else
    return 0
end
`)

// NewRedisLimiter allows limit requests per window for each key. A limit of
// zero or less disables limiting.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	if window <= 0 {
		window = time.Second
	}
	return &RedisLimiter{
		client: client,
		logger: logger,
		script: slidingWindowScript,
		limit:  limit,
		window: window,
	}
}

func rlKey(key string) string {
	return fmt.Sprintf("rl:register:%s", key)
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}

	now := time.Now()
	member := fmt.Sprintf("%d:%d", now.UnixMilli(), now.UnixNano()%1_000_000)

	result, err := rl.script.Run(ctx, rl.client, []string{rlKey(key)},
		now.UnixMilli(), rl.window.Milliseconds(), rl.limit, member,
	).Int64()
	if err != nil {
		rl.logger.Error("rate limiter script failed", "error", err, "key", key)
		return true // fail open
	}

	if result == 0 {
		rl.logger.Debug("rate limited", "key", key, "limit", rl.limit)
		return false
	}
	return true
}
