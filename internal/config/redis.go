package config

// Redis backs the rate limiter and the availability cache.  Connection
// parameters come from the environment; when the server cannot be reached
// at startup NewRedisClient returns nil and both features switch off.

import (
    "context"
    "crypto/tls"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//   REDIS_ADDR – host:port (default localhost:6379)
//   REDIS_HOST and REDIS_PORT – take precedence over REDIS_ADDR when both are set
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
// The returned client is nil if a connection cannot be established.
func NewRedisClient() *redis.Client {
    addr := getenv("REDIS_ADDR", "localhost:6379")
    if host, port := envStr("REDIS_HOST", ""), envStr("REDIS_PORT", ""); host != "" && port != "" {
        addr = host + ":" + port
    }
    var tlsConf *tls.Config
    if v := envStr("REDIS_TLS", ""); strings.EqualFold(v, "true") || v == "1" {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:         addr,
        Password:     envStr("REDIS_PASSWORD", ""),
        DB:           envInt("REDIS_DB", 0),
        TLSConfig:    tlsConf,
        DialTimeout:  2 * time.Second,
        ReadTimeout:  time.Second,
        WriteTimeout: time.Second,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
