package config

import (
	"time"
)

// CacheConfig defines settings for the read-through cache store.
// When Enabled is false or no Redis client is configured, caching is
// disabled and every read computes fresh data.  TTL bounds entry
// lifetime as a safety net on top of explicit invalidation; Prefix
// namespaces all cache keys.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults are used when variables are not set.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: getenv("CACHE_ENABLED", "true") == "true",
		TTL:     parseDur(getenv("CACHE_TTL", "5m")),
		Prefix:  getenv("CACHE_PREFIX", "rental"),
	}
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
