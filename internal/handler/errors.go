package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/utils"
)

var errInvalidBody = echo.NewHTTPError(http.StatusBadRequest, "invalid body")

// AppHTTPErrorHandler renders errors returned by handlers.  Validation
// errors become a 400 with a field -> message map, *echo.HTTPError keeps
// its code as {"error": message}, anything else is logged and reported as
// a bare 500.
func AppHTTPErrorHandler(err error, c echo.Context) {
	var (
		code    int
		message interface{}
		verrs   validator.ValidationErrors
		herr    *echo.HTTPError
	)
	switch {
	case errors.As(err, &verrs):
		code = http.StatusBadRequest
		message = echo.Map{"error": "validation failed", "fields": utils.FieldErrors(verrs)}
	case errors.As(err, &herr):
		if inner, ok := herr.Internal.(*echo.HTTPError); ok {
			herr = inner
		}
		code = herr.Code
		if m, ok := herr.Message.(string); ok {
			message = echo.Map{"error": m}
		} else {
			message = herr.Message
		}
	default:
		code = http.StatusInternalServerError
		message = echo.Map{"error": http.StatusText(code)}
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, message)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

// bindValid binds the request into dst and runs the registered validator.
// Bind failures become 400 "invalid body"; validation errors are returned
// as is for AppHTTPErrorHandler.
func bindValid(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return errInvalidBody
	}
	return c.Validate(dst)
}
