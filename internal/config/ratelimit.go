package config

import (
	"strconv"
	"time"
)

// RateLimitConfig defines the token bucket applied to booking writes.
// Booking creation is the one endpoint where a misbehaving client can
// grab date ranges faster than a human ever would, so the defaults
// are deliberately tight compared to a general API limit.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // bucket size (burst)
	RefillInterval time.Duration // one token added per interval
	TTL            time.Duration // idle bucket expiry in Redis
	Prefix         string        // key namespace
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig.  Defaults allow a burst of 10 booking writes with
// one token refilled per second.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Capacity:       getenvInt("RATE_LIMIT_CAPACITY", 10),
		RefillInterval: parseDur(getenv("RATE_LIMIT_REFILL_INTERVAL", "1s")),
		TTL:            parseDur(getenv("RATE_LIMIT_TTL", "10m")),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rental:rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// The bucket must outlive a few refill intervals or idle buckets
	// reset to full capacity too eagerly.
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

// getenvInt returns an integer environment variable or a default when
// unset or malformed.
func getenvInt(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}
