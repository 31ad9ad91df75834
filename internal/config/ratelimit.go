package config

import "time"

// RateLimitConfig controls the fixed-window limiter applied to the
// credential endpoints (login, register).  Window counters live in
// Redis so the limit holds across server instances.
type RateLimitConfig struct {
	Enabled bool
	Limit   int           // requests allowed per window per client+route
	Window  time.Duration // window length
	Prefix  string        // redis key namespace
}

// LoadRateLimitConfig reads the limiter settings from the environment,
// falling back to defaults suitable for a login endpoint.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: envStr("RATE_LIMIT_ENABLED", "true") == "true",
		Limit:   envInt("RATE_LIMIT_REQUESTS", 10),
		Window:  envDur("RATE_LIMIT_WINDOW", time.Minute),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}
