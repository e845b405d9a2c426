package redis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter implements a sliding window limit shared by every API replica
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
	now    func() time.Time
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string // caller identity, e.g. "upload:10.0.0.7"
	Limit  int    // maximum requests per window
	Window time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Members carry a request id so requests in the same millisecond are counted apart.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = ARGV[1]
	local window_start = ARGV[2]
	local limit = tonumber(ARGV[3])
	local window_ms = ARGV[4]
	local member = now .. ':' .. ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// Allow reports whether a request fits in the window, and how many remain.
// Every request is allowed when Redis is disabled.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := r.now().UnixMilli()

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		now-cfg.Window.Milliseconds(),
		cfg.Limit,
		cfg.Window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	return result[0] == 1, int(result[1]), nil
}

// UploadLimit builds the per-client upload limit matching a token bucket of
// ratePerSec with the given burst: burst requests per burst/ratePerSec.
func UploadLimit(client string, ratePerSec float64, burst int) RateLimitConfig {
	if burst < 1 {
		burst = 1
	}
	window := time.Second
	if ratePerSec > 0 {
		window = time.Duration(math.Round(float64(burst)/ratePerSec*1000)) * time.Millisecond
	}
	if window < time.Millisecond {
		window = time.Millisecond
	}

	return RateLimitConfig{
		Key:    "upload:" + client,
		Limit:  burst,
		Window: window,
	}
}
