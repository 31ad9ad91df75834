// Package router wires HTTP routes to their handlers.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tganiev/table-reservation/internal/config"
	"github.com/tganiev/table-reservation/internal/handler"
	"github.com/tganiev/table-reservation/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication: the
// health check and the public availability lookup.
func RegisterRoutes(e *echo.Echo, r *handler.ReservationHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/availability", r.Availability)
}

// RegisterAuth registers the account endpoints.  The credential
// endpoints (register, login) sit behind the redis rate limiter;
// refresh and logout authenticate by the refresh token itself.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	limited := middleware.RateLimit(rlCfg, rdb)

	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limited)
	g.GET("/verify", a.Verify)
	g.POST("/login", a.Login, limited)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterReservations registers the protected reservation endpoints
// behind the JWT middleware.
func RegisterReservations(e *echo.Echo, a *handler.AuthHandler, r *handler.ReservationHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))

	auth.GET("/me", a.Me)
	auth.GET("/reservations", r.List)
	auth.POST("/reservations", r.Create)
	auth.POST("/reservations/cancel", r.Cancel)
}
