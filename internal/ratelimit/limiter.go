// Package ratelimit throttles inbound chat traffic per device using a
// Redis-backed token bucket.  Without Redis the limiter degrades to
// allowing everything, so a missing cache never takes the bot down.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jamesdwilson/byteball-merchant/internal/config"
)

// The script refills the bucket lazily on each call and answers whether
// one token could be taken.  State lives in a Redis hash per device.
var bucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)

    return allowed
`)

// Bucket is a per-key token bucket.  It satisfies bot.Limiter.
type Bucket struct {
	rdb *redis.Client
	cfg config.RateLimitConfig
	now func() int64 // unix milliseconds, swappable in tests
}

// New returns a Bucket.  rdb may be nil, in which case Allow always
// returns true.
func New(rdb *redis.Client, cfg config.RateLimitConfig) *Bucket {
	return &Bucket{rdb: rdb, cfg: cfg, now: func() int64 { return time.Now().UnixMilli() }}
}

// Allow takes one token from the key's bucket.  Redis errors are
// returned so the caller can decide to fail open.
func (b *Bucket) Allow(ctx context.Context, key string) (bool, error) {
	if b.rdb == nil || !b.cfg.Enabled {
		return true, nil
	}
	nowMillis := b.now()
	args := []interface{}{
		nowMillis,
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.cfg.TTL.Seconds()),
	}
	val, err := bucketScript.Run(ctx, b.rdb, []string{b.cfg.Prefix + ":device:" + key}, args...).Int64()
	if err != nil {
		return false, err
	}
	return val == 1, nil
}
