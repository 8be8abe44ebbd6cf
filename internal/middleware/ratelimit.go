package middleware

import (
    "log/slog"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-checkin/internal/config"
)

// tokenBucketScript refills and takes one token atomically.
// KEYS[1] bucket; ARGV: now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local cap = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])

local st = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(st[1]) or cap
local ts = tonumber(st[2]) or now

local n = math.floor(math.max(0, now - ts) / interval)
if n > 0 then
  tokens = math.min(cap, tokens + n * refill)
  ts = ts + n * interval
end

local allowed, retry = 0, 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.max(0, interval - (now - ts))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
return {allowed, tokens, retry}
`)

// bucketDecision is the parsed script result.
type bucketDecision struct {
    Allowed   bool
    Remaining int64
    RetryMs   int64
}

// NewTokenBucket limits requests per bucket key with a token bucket kept in
// Redis, so every instance behind the load balancer shares the same
// budget.  Without Redis, or when Redis errors, requests pass through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Result()
            if err != nil {
                slog.Warn("ratelimit: redis error, letting request through", "key", key, "error", err)
                return next(c)
            }
            d, ok := parseDecision(vals)
            if !ok {
                slog.Warn("ratelimit: unexpected script result", "key", key)
                return next(c)
            }
            return applyDecision(c, next, cfg, d)
        }
    }
}

func applyDecision(c echo.Context, next echo.HandlerFunc, cfg config.RateLimitConfig, d bucketDecision) error {
    h := c.Response().Header()
    h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
    h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
    if d.Allowed {
        return next(c)
    }
    secs := int(math.Ceil(float64(d.RetryMs) / 1000))
    h.Set("Retry-After", strconv.Itoa(secs))
    slog.Info("ratelimit: scan throttled", "user_id", UserID(c), "ip", c.RealIP(), "retry_ms", d.RetryMs)
    return c.JSON(http.StatusTooManyRequests, echo.Map{
        "message":     "Too many scans, slow down",
        "retry_after": secs,
    })
}

func parseDecision(v any) (bucketDecision, bool) {
    arr, ok := v.([]any)
    if !ok || len(arr) != 3 {
        return bucketDecision{}, false
    }
    allowed, ok1 := arr[0].(int64)
    remaining, ok2 := arr[1].(int64)
    retry, ok3 := arr[2].(int64)
    if !ok1 || !ok2 || !ok3 {
        return bucketDecision{}, false
    }
    return bucketDecision{Allowed: allowed == 1, Remaining: remaining, RetryMs: retry}, true
}

// buildRateKey names the bucket.  "device" pairs the client address with
// the operator so two scanners behind one NAT do not share a budget.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    parts := []string{cfg.Prefix}
    switch cfg.KeyBy {
    case "user":
        parts = append(parts, "user", UserID(c))
    case "ip":
        parts = append(parts, "ip", ip)
    default:
        parts = append(parts, "ip", ip, "user", UserID(c))
    }
    return strings.Join(parts, ":")
}
