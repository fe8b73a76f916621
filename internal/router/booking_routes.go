package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-reservation/internal/handler"
	"github.com/iliyamo/court-reservation/internal/middleware"
	"github.com/iliyamo/court-reservation/internal/model"
)

// RegisterBookings registers /v1/bookings.  Every route requires a valid
// JWT of either role and an account that is not disabled or suspended;
// ownership of a specific booking is checked in the handler.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, gate echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
		gate,
	)
	g.POST("", h.Create)
	g.GET("/free", h.FreeSlots)
	g.GET("/mine", h.Mine)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Cancel)
}
