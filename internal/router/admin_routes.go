package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/middleware"
	"github.com/iliyamo/cinemaops/internal/model"
)

// RegisterAdmin registers chain-wide administration: clusters, catalogue,
// promotions, membership tiers and prices.
func RegisterAdmin(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))

	// ---- Cinemas ----
	g.POST("/cinemas", h.Cinema.Create)
	g.PUT("/cinemas/:id", h.Cinema.Update)
	g.PUT("/cinemas/:id/manager", h.Cinema.AssignManager)
	g.GET("/cinemas/managers", h.Cinema.Managers)
	g.POST("/cinemas/:id/plans", h.Cinema.CreatePlan)

	// ---- Movies ----
	g.POST("/movies", h.Movie.Import)

	// ---- Promotions ----
	g.GET("/promotions/statistics", h.Promotion.Statistics)
	g.POST("/promotions", h.Promotion.Create)
	g.PUT("/promotions/:id", h.Promotion.Update)
	g.DELETE("/promotions/:id", h.Promotion.Delete)

	// ---- Membership tiers ----
	g.POST("/membershiptiers", h.Membership.CreateTier)
	g.PUT("/membershiptiers/:id", h.Membership.UpdateTier)
	g.DELETE("/membershiptiers/:id", h.Membership.DeleteTier)

	// Admins and managers share plan reads and price edits.
	both := e.Group("/api", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin, model.RoleManager))
	both.GET("/cinemas/:id/plans", h.Cinema.ListPlans)
	both.PUT("/ticketprice/:cinema_id", h.TicketPrice.Update)
}
