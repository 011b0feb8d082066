package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/handler"
	"github.com/iliyamo/cinemaops/internal/middleware"
	"github.com/iliyamo/cinemaops/internal/model"
)

// RegisterAuth registers sign-in routes under /api/auth and the
// authenticated /api/me.  Logout needs no JWT: a refresh token in the body
// is enough to end that session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)
	g.GET("/google/callback", a.GoogleCallback)

	e.GET("/api/me", a.Me, middleware.JWTAuth(jwtSecret))

	admin := e.Group("/api/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
	admin.POST("/users", a.CreateUser)
	admin.GET("/users", a.ListUsers)
}
