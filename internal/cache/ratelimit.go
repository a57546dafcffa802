package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitSubjectPrefix = "ratelimit:uid:"
	rateLimitIPPrefix      = "ratelimit:ip:"
	rateLimitSubjectTTL    = 120 * time.Second
	rateLimitIPTTL         = 10 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes in a single atomic step.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- bucket capacity
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// CheckSubjectRateLimit applies a per-minute budget to an authenticated uid.
func (c *Cache) CheckSubjectRateLimit(ctx context.Context, uid string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return allowAll(burst, c.now()), nil
	}
	return c.checkRateLimit(ctx, rateLimitSubjectPrefix+hashKey(uid), float64(ratePerMinute)/60.0, burst, rateLimitSubjectTTL)
}

// CheckIPRateLimit applies a per-second budget to a client address.
// The address is hashed before it reaches Redis.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 {
		return allowAll(burst, c.now()), nil
	}
	return c.checkRateLimit(ctx, rateLimitIPPrefix+hashKey(ip), float64(ratePerSecond), burst, rateLimitIPTTL)
}

// checkRateLimit fails open: on Redis errors the result allows the request
// and the error is returned for logging.
func (c *Cache) checkRateLimit(ctx context.Context, key string, rate float64, burst int, ttl time.Duration) (*RateLimitResult, error) {
	now := c.now()

	result, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		rate, burst, now.Unix(), int(ttl.Seconds()),
	).Int64Slice()
	if err != nil {
		return allowAll(burst, now), fmt.Errorf("rate limit script: %w", err)
	}

	return bucketResult(result, rate, now), nil
}

func bucketResult(result []int64, rate float64, now time.Time) *RateLimitResult {
	return &RateLimitResult{
		Allowed:    result[0] == 1,
		Remaining:  result[2],
		ResetAt:    now.Add(time.Duration(float64(time.Second) / rate)),
		RetryAfter: time.Duration(result[1]) * time.Second,
	}
}

func allowAll(burst int, now time.Time) *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(burst),
		ResetAt:   now.Add(time.Minute),
	}
}

// hashKey creates a truncated SHA256 hash (16 hex chars).
func hashKey(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:8])
}
