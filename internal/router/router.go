// Package router wires handlers to paths.  Routes are grouped by the role
// they require; public routes carry no auth middleware.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/handler"
)

// Handlers is everything the router mounts.  Chatbot is nil when no chat
// backend is configured.
type Handlers struct {
	Auth        *handler.AuthHandler
	Stream      *handler.StreamHandler
	Cinema      *handler.CinemaHandler
	Movie       *handler.MovieHandler
	Promotion   *handler.PromotionHandler
	Membership  *handler.MembershipHandler
	TicketPrice *handler.TicketPriceHandler
	Schedule    *handler.ScheduleHandler
	Leave       *handler.LeaveHandler
	Booking     *handler.BookingHandler
	Room        *handler.RoomHandler
	Showtime    *handler.ShowtimeHandler
	Realtime    http.Handler // public catalogue feed
	StaffFeed   http.Handler // signed-in staff feed
	Chatbot     echo.MiddlewareFunc
}

// Register mounts every route group.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	RegisterRoutes(e)
	RegisterAuth(e, h.Auth, jwtSecret)
	RegisterPublic(e, h)
	RegisterAdmin(e, h, jwtSecret)
	RegisterStaff(e, h, jwtSecret)
	RegisterCustomer(e, h, jwtSecret)
	RegisterProjection(e, h, jwtSecret)
}

// RegisterRoutes registers routes that do not touch the API: the health
// check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
