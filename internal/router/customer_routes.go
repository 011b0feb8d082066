package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/middleware"
	"github.com/iliyamo/cinemaops/internal/model"
)

// RegisterCustomer registers membership and booking routes.  Employees
// share the booking endpoints for counter sales.
func RegisterCustomer(e *echo.Echo, h Handlers, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)

	g := e.Group("/api", auth, middleware.RequireRole(model.RoleCustomer))
	g.POST("/memberships/register", h.Membership.Register)
	g.GET("/memberships/me", h.Membership.Me)

	b := e.Group("/api/bookings", auth, middleware.RequireRole(model.RoleCustomer, model.RoleEmployee))
	b.POST("", h.Booking.Create)
	b.GET("/:id/status", h.Booking.Status)
}
