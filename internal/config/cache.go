package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the Redis response cache.  When Enabled
// is false or no Redis client is available the cache middleware is a
// passthrough.  Only requests whose method is listed in Methods and whose
// route starts with one of Paths are cached.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	Paths        []string
	TTL          time.Duration
	KeyStrategy  string // route | route_query | method_route | method_route_query
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  The default path list covers the
// public catalogue endpoints the SPA polls on every page load.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		Paths:        splitList(envStr("CACHE_PATHS", "/api/cinemas,/api/movies,/api/promotions,/api/membershiptiers")),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// Cacheable reports whether a request with the given method and route
// pattern may be served from the cache.
func (c CacheConfig) Cacheable(method, route string) bool {
	if !c.Methods[strings.ToUpper(method)] {
		return false
	}
	if len(c.Paths) == 0 {
		return true
	}
	for _, p := range c.Paths {
		if route == p || strings.HasPrefix(route, p+"/") {
			return true
		}
	}
	return false
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
