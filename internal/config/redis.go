package config

// Redis backs two things here: the token-bucket rate limiter on the scan
// endpoint and the pub/sub relay that carries realtime events between
// server instances.  Both degrade gracefully when no client is available:
// the limiter lets every request through and events stay local to the
// instance that produced them.

import (
    "context"
    "crypto/tls"
    "log/slog"
    "time"

    "github.com/caarlos0/env/v11"
    "github.com/redis/go-redis/v9"
)

// RedisConfig maps the REDIS_* variables.  REDIS_HOST and REDIS_PORT win
// over REDIS_ADDR when both are set.
type RedisConfig struct {
    Disabled bool   `env:"REDIS_DISABLED"`
    Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
    Host     string `env:"REDIS_HOST"`
    Port     string `env:"REDIS_PORT"`
    Password string `env:"REDIS_PASSWORD"`
    DB       int    `env:"REDIS_DB" envDefault:"0"`
    TLS      bool   `env:"REDIS_TLS"`
}

// Address returns the host:port to dial.
func (c RedisConfig) Address() string {
    if c.Host != "" && c.Port != "" {
        return c.Host + ":" + c.Port
    }
    return c.Addr
}

// NewRedisClient builds a client from the environment and pings it.  The
// result is nil when Redis is disabled, misconfigured or unreachable.
func NewRedisClient(ctx context.Context) *redis.Client {
    var cfg RedisConfig
    if err := env.Parse(&cfg); err != nil {
        slog.Warn("redis config invalid, running without redis", "error", err)
        return nil
    }
    if cfg.Disabled {
        return nil
    }
    opts := &redis.Options{
        Addr:     cfg.Address(),
        Password: cfg.Password,
        DB:       cfg.DB,
    }
    if cfg.TLS {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)

    pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pingCtx).Err(); err != nil {
        slog.Warn("redis unavailable, running without rate limit and relay", "addr", opts.Addr, "error", err)
        _ = client.Close()
        return nil
    }
    return client
}
