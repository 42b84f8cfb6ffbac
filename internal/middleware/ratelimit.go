package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/slot-booking/internal/config"
)

// tokenBucket refills and takes one token atomically inside Redis, so
// every server instance shares one bucket per key.
// KEYS[1] bucket; ARGV now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed, tokens_left, retry_after_ms}.
var tokenBucket = redis.NewScript(`
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

    local elapsed = math.max(0, now_ms - last_refill)
    local intervals = math.floor(elapsed / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + intervals * refill_tokens)
        last_refill = last_refill + intervals * interval_ms
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)
    return { allowed, tokens, retry_after_ms }
`)

// Decision is the outcome of one Allow call.
type Decision struct {
    Allowed    bool
    Remaining  int64
    RetryAfter time.Duration
}

// RateLimiter is a Redis token bucket.
type RateLimiter struct {
    cfg config.RateLimitConfig
    rdb redis.Scripter
}

// NewRateLimiter returns a limiter using cfg on rdb.
func NewRateLimiter(cfg config.RateLimitConfig, rdb redis.Scripter) *RateLimiter {
    return &RateLimiter{cfg: cfg, rdb: rdb}
}

// Allow takes a token from the bucket named key.
func (l *RateLimiter) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
    vals, err := tokenBucket.Run(ctx, l.rdb, []string{key},
        now.UnixMilli(),
        l.cfg.Capacity,
        l.cfg.RefillTokens,
        l.cfg.RefillInterval.Milliseconds(),
        int64(l.cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return Decision{}, err
    }
    if len(vals) != 3 {
        return Decision{}, fmt.Errorf("unexpected rate limit reply: %v", vals)
    }
    return Decision{
        Allowed:    vals[0] == 1,
        Remaining:  vals[1],
        RetryAfter: time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// Key builds the bucket name for a request.
func (l *RateLimiter) Key(c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    route := c.Request().Method + " " + c.Path()
    parts := []string{l.cfg.Prefix}
    switch strings.ToLower(l.cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", identityKey(c))
    default: // "ip_user"
        parts = append(parts, "ip", ip, "user", identityKey(c))
    }
    parts = append(parts, "route", route)
    return strings.Join(parts, ":")
}

// RateLimit guards a route with the token bucket.  Without Redis, or
// when Redis fails mid-request, requests pass through.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    l := NewRateLimiter(cfg, rdb)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := l.Key(c)
            d, err := l.Allow(c.Request().Context(), key, time.Now())
            if err != nil {
                log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
                return next(c)
            }
            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
            if !d.Allowed {
                secs := int(math.Ceil(d.RetryAfter.Seconds()))
                h.Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "statusCode": http.StatusTooManyRequests,
                    "message":    "rate limit exceeded",
                })
            }
            return next(c)
        }
    }
}
