package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkScript prunes expired entries, counts, and conditionally records the
// request in one atomic step so concurrent checks from the same user cannot
// all observe the pre-record count. Returns {1} when allowed, {0, oldest}
// when at the limit, where oldest is the score of the oldest surviving entry.
var checkScript = redis.NewScript(`
	redis.call("ZREMRANGEBYSCORE", KEYS[1], 0, ARGV[2])
	if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[3]) then
		local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
		return {0, oldest[2]}
	end
	redis.call("ZADD", KEYS[1], ARGV[1], ARGV[1])
	redis.call("PEXPIRE", KEYS[1], ARGV[4])
	return {1}
`)

// RedisLimiter is the shared-store sliding window for multi-instance
// deployments. State is a per-user sorted set of request timestamps scored
// by unix nanos; prune, count, and record run as one server-side script.
type RedisLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int

	now func() time.Time
}

// NewRedisLimiter returns a limiter backed by the given Redis client. Zero
// values fall back to the package defaults.
func NewRedisLimiter(client *redis.Client, window time.Duration, limit int) *RedisLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RedisLimiter{client: client, window: window, limit: limit, now: time.Now}
}

func (l *RedisLimiter) key(userID string) string {
	return "vamo:ratelimit:" + userID
}

// Check implements Limiter. A Redis failure is returned to the caller as a
// system error; the endpoint decides whether to fail open or closed.
func (l *RedisLimiter) Check(ctx context.Context, userID string) (Result, error) {
	now := l.now()
	cutoff := now.Add(-l.window)

	raw, err := checkScript.Run(ctx, l.client, []string{l.key(userID)},
		strconv.FormatInt(now.UnixNano(), 10),
		strconv.FormatInt(cutoff.UnixNano(), 10),
		l.limit,
		l.window.Milliseconds(),
	).Slice()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check for %s: %w", userID, err)
	}

	if allowed, _ := raw[0].(int64); allowed == 1 {
		return Result{OK: true}, nil
	}

	oldest := now
	if len(raw) > 1 {
		if score, ok := raw[1].(string); ok {
			if nanos, err := strconv.ParseInt(score, 10, 64); err == nil {
				oldest = time.Unix(0, nanos)
			}
		}
	}
	return Result{OK: false, RetryAfter: retryAfterSeconds(oldest, now, l.window)}, nil
}
