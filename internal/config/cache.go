package config

import (
    "os"
    "time"
)

// CacheConfig defines settings for the availability response cache.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  TTL bounds how stale a cached availability list may be;
// keep it short because seat counts move with every booking.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.
func LoadCacheConfig() CacheConfig {
    c := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 5*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "cache:availability"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if c.TTL <= 0 {
        c.Enabled = false
    }
    return c
}

// getenv returns the value of key or def when it is unset or empty.
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}
