package router

import (
	"github.com/labstack/echo/v4"
)

// RegisterPublic registers routes open to guests: the catalogue the SPA
// renders before sign-in, the video stream, the payment webhook, the
// catalogue websocket and the chat proxy.
func RegisterPublic(e *echo.Echo, h Handlers) {
	e.GET("/api/cinemas", h.Cinema.List)
	e.GET("/api/movies", h.Movie.List)
	e.GET("/api/movies/upcoming", h.Movie.Upcoming)
	e.GET("/api/promotions", h.Promotion.List)
	e.GET("/api/promotions/active", h.Promotion.Active)
	e.POST("/api/promotions/quote", h.Promotion.Quote)
	e.GET("/api/membershiptiers", h.Membership.ListTiers)
	e.GET("/api/ticketprice/:cinema_id", h.TicketPrice.List)
	e.GET("/api/ticketprice/:cinema_id/:date", h.TicketPrice.ForDate)
	e.GET("/api/showtimes/:id/seats", h.Booking.Seats)
	e.GET("/api/showtimes/cinema/:cinema_id", h.Showtime.ListByCinema)

	s := e.Group("/api/stream")
	s.GET("", h.Stream.Playlist)
	s.GET("/segment", h.Stream.Segment)
	s.GET("/titles", h.Stream.Titles)

	e.POST("/api/webhooks/sepay", h.Booking.Webhook)

	if h.Realtime != nil {
		e.GET("/api/ws", echo.WrapHandler(h.Realtime))
	}
	if h.Chatbot != nil {
		e.Any("/api/chatbot/*", echo.NotFoundHandler, h.Chatbot)
	}
}
