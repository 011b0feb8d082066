package middleware

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// identity returns the authenticated user id as a string, or "anon" when
// no token was accepted for this request.
func identity(c echo.Context) string {
    switch v := c.Get(CtxUserID).(type) {
    case uint64:
        if v > 0 {
            return strconv.FormatUint(v, 10)
        }
    case string:
        if v != "" {
            return v
        }
    }
    return "anon"
}
