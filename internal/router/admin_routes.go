package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-reservation/internal/handler"
	"github.com/iliyamo/court-reservation/internal/middleware"
	"github.com/iliyamo/court-reservation/internal/model"
)

// RegisterAdmin registers venue writes and the /v1/admin dashboard.  All
// routes require the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, v *handler.VenueHandler, jwtSecret string, gate echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		gate,
	}

	venues := e.Group("/v1/venues", mw...)
	venues.POST("", v.Create)
	venues.PUT("/:id", v.Update)
	venues.DELETE("/:id", v.Delete)

	g := e.Group("/v1/admin", mw...)
	g.GET("/stats", a.Stats)
	g.GET("/users", a.Users)
	g.PUT("/users/:id/status", a.SetUserStatus)
	g.GET("/bookings", a.Bookings)
}
