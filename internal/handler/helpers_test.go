package handler

import (
	"database/sql"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemaops/internal/middleware"
	"github.com/iliyamo/cinemaops/internal/utils"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = utils.EchoValidator{}
	e.HTTPErrorHandler = AppHTTPErrorHandler
	return e
}

func newRequest(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// run invokes h and routes a returned error through the app error handler,
// the way Echo does for a routed request.
func run(e *echo.Echo, c echo.Context, h echo.HandlerFunc) {
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func asUser(c echo.Context, id uint64, role string) {
	c.Set(middleware.CtxUserID, id)
	c.Set(middleware.CtxRole, role)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeHub struct {
	events []string
	data   []any
}

func (f *fakeHub) Broadcast(event string, data any) {
	f.events = append(f.events, event)
	f.data = append(f.data, data)
}
