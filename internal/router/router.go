// Package router registers the HTTP routes on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-reservation/internal/handler"
	"github.com/iliyamo/court-reservation/internal/middleware"
)

// RegisterRoutes registers the unauthenticated probes: /healthz for
// liveness and /readyz for dependency readiness.
func RegisterRoutes(e *echo.Echo, deps map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(deps))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// protected /v1/me.  gate runs after JWTAuth on protected routes.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, gate echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// logout takes either a refresh token or a bearer, so it is not behind JWTAuth
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), gate)
}

// RegisterPublic registers the anonymous venue browse endpoints.  cache
// wraps the listing; pass a no-op middleware to disable it.
func RegisterPublic(e *echo.Echo, v *handler.VenueHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/venues", v.List, cache)
	e.GET("/v1/venues/:id", v.Get)
}
