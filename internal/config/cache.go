package config

import (
	"strings"
	"time"
)

// CacheConfig tunes the Redis response cache sitting in front of the
// public seat-availability endpoint.  A price of the lazy seat model is
// that availability reads hit the seats table; a short TTL keeps that
// load flat during on-sales while staying close to live.  Disabled (or
// with no Redis client) the middleware is a pass-through.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig builds a CacheConfig from CACHE_* environment
// variables, with defaults suited to availability caching.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methodSet(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func methodSet(csv string) map[string]bool {
	m := make(map[string]bool)
	for _, p := range strings.Split(csv, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			m[p] = true
		}
	}
	return m
}
