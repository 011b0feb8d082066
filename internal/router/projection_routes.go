package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/middleware"
	"github.com/iliyamo/cinemaops/internal/model"
)

// RegisterProjection registers room and showtime management.  Projectionists
// and admins schedule; managers may read the rooms of a cluster.
func RegisterProjection(e *echo.Echo, h Handlers, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)

	read := e.Group("/api/rooms", auth, middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleProjectionist))
	read.GET("/cinema/:cinema_id", h.Room.ListByCinema)
	read.GET("/:id", h.Room.Get)

	rooms := e.Group("/api/rooms", auth, middleware.RequireRole(model.RoleAdmin, model.RoleProjectionist))
	rooms.POST("", h.Room.Create)
	rooms.PUT("/:id", h.Room.Update)
	e.DELETE("/api/rooms/:id", h.Room.Delete, auth, middleware.RequireRole(model.RoleAdmin))

	shows := e.Group("/api/showtimes", auth, middleware.RequireRole(model.RoleAdmin, model.RoleProjectionist))
	shows.POST("", h.Showtime.Create)
	shows.PUT("/:id", h.Showtime.Update)
	shows.DELETE("/:id", h.Showtime.Delete)
}
