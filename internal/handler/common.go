package handler // handler defines http handlers

import (
	"context"
	"errors"  // errors provides sentinel values used in getUserID
	"net/http"
	"strconv" // strconv converts strings to numeric types
	"time"

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/cinemaops/internal/middleware"
	"github.com/iliyamo/cinemaops/internal/realtime"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.CtxUserID).(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim stored by the auth middleware.
func getRole(c echo.Context) string {
	r, _ := c.Get(middleware.CtxRole).(string)
	return r
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return n
	}
	return def
}

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

type cachePurger interface {
	Purge(ctx context.Context, routes ...string) error
}

// Changes announces a committed write: cached responses of the affected
// routes are dropped and connected dashboards receive the event.  Hub is the
// public feed and only carries catalogue events; Staff reaches signed-in
// staff dashboards.  Any part may be nil.
type Changes struct {
	Hub   realtime.Broadcaster
	Staff realtime.Broadcaster
	Cache cachePurger
}

// Announce purges routes and broadcasts event with data on the public feed.
func (ch *Changes) Announce(c echo.Context, event string, data interface{}, routes ...string) {
	if ch == nil {
		return
	}
	ch.purge(c, routes)
	if ch.Hub != nil && event != "" {
		ch.Hub.Broadcast(event, data)
	}
}

// AnnounceStaff broadcasts event on the staff feed only.
func (ch *Changes) AnnounceStaff(c echo.Context, event string, data interface{}, routes ...string) {
	if ch == nil {
		return
	}
	ch.purge(c, routes)
	if ch.Staff != nil && event != "" {
		ch.Staff.Broadcast(event, data)
	}
}

func (ch *Changes) purge(c echo.Context, routes []string) {
	if ch.Cache == nil || len(routes) == 0 {
		return
	}
	if err := ch.Cache.Purge(c.Request().Context(), routes...); err != nil {
		c.Logger().Warnf("cache purge %v: %v", routes, err)
	}
}
