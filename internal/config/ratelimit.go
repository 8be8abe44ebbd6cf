package config

import (
    "fmt"
    "time"

    "github.com/caarlos0/env/v11"
)

// RateLimitConfig tunes the token bucket guarding the scan endpoint.  A
// scanner at a busy entrance fires bursts when a queue forms, so buckets are
// kept per device rather than for the whole service.
type RateLimitConfig struct {
    Enabled        bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
    Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"30"`       // burst size
    RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS" envDefault:"2"`   // tokens added per interval
    RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1s"`
    TTL            time.Duration `env:"RATE_LIMIT_TTL" envDefault:"10m"`           // idle buckets expire after this
    KeyBy          string        `env:"RATE_LIMIT_KEY_BY" envDefault:"device"`     // device | user | ip
    Prefix         string        `env:"RATE_LIMIT_PREFIX" envDefault:"checkin:rl"`
}

// LoadRateLimitConfig parses RATE_LIMIT_* variables.  Malformed values fall
// back to the defaults rather than stopping the server.
func LoadRateLimitConfig() RateLimitConfig {
    var cfg RateLimitConfig
    if err := env.Parse(&cfg); err != nil {
        cfg = RateLimitConfig{}
        _ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
    }
    cfg.normalize()
    return cfg
}

// normalize clamps values that would make the bucket useless.
func (c *RateLimitConfig) normalize() {
    if c.Capacity < 1 {
        c.Capacity = 1
    }
    if c.RefillTokens < 1 {
        c.RefillTokens = 1
    }
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
        c.TTL = minTTL
    }
    switch c.KeyBy {
    case "device", "user", "ip":
    default:
        c.KeyBy = "device"
    }
}

func (c RateLimitConfig) String() string {
    return fmt.Sprintf("capacity=%d refill=%d/%s key_by=%s", c.Capacity, c.RefillTokens, c.RefillInterval, c.KeyBy)
}
