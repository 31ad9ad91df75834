package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tganiev/table-reservation/internal/config"
)

// RateLimit returns a fixed-window limiter keyed by client IP and
// route, backed by Redis so the window survives restarts and is shared
// between instances.  It is meant for the credential endpoints, where
// the cost of a false negative is low and a shared counter is enough.
// When the limiter is disabled or Redis is unavailable the middleware
// passes every request through.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := cfg.Prefix + ":" + c.Path() + ":" + c.RealIP()
			ctx := c.Request().Context()

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// Redis trouble must not take the endpoint down.
				return next(c)
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, cfg.Window).Err()
			}

			remaining := int64(cfg.Limit) - n
			if remaining < 0 {
				remaining = 0
			}
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if n > int64(cfg.Limit) {
				ttl, err := rdb.TTL(ctx, key).Result()
				if err == nil && ttl > 0 {
					c.Response().Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())+1))
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error": "too many requests, slow down",
				})
			}
			return next(c)
		}
	}
}
