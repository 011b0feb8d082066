package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppHTTPErrorHandlerValidation(t *testing.T) {
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/auth/register", `{"email":"not-an-email"}`)
	var req registerReq
	run(e, c, func(c echo.Context) error { return bindValid(c, &req) })

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestAppHTTPErrorHandlerInvalidBody(t *testing.T) {
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/auth/register", `{"email":`)
	var req registerReq
	run(e, c, func(c echo.Context) error { return bindValid(c, &req) })

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid body"}`, rec.Body.String())
}

func TestAppHTTPErrorHandlerHTTPError(t *testing.T) {
	e := newEcho()
	c, rec := newRequest(e, http.MethodGet, "/api/leave/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")
	run(e, c, func(c echo.Context) error {
		_, err := pathID(c, "id")
		return err
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid id"}`, rec.Body.String())
}

func TestAppHTTPErrorHandlerUnknown(t *testing.T) {
	e := newEcho()
	c, rec := newRequest(e, http.MethodGet, "/api/cinemas", "")
	run(e, c, func(echo.Context) error { return errors.New("connection refused") })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}

func TestAppHTTPErrorHandlerHead(t *testing.T) {
	e := newEcho()
	c, rec := newRequest(e, http.MethodHead, "/api/cinemas", "")
	run(e, c, func(echo.Context) error { return echo.ErrNotFound })

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}
