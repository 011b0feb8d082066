package handler

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
)

func newShowtime(t *testing.T) (*ShowtimeHandler, sqlmock.Sqlmock, *fakeHub) {
	t.Helper()
	db, mock := newMock(t)
	hub := &fakeHub{}
	h := NewShowtimeHandler(repository.NewShowtimeRepo(db), &Changes{Hub: hub})
	h.Loc = time.UTC
	h.Now = func() time.Time { return fixedNow }
	return h, mock, hub
}

func expectScheduled(mock sqlmock.Sqlmock, id int64, start, end string) {
	mock.ExpectQuery(`SELECT cinema_id FROM rooms`).WillReturnRows(sqlmock.NewRows([]string{"cinema_id"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM movies`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM showtimes`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO showtimes`).WithArgs(550, 7, start, end, model.ShowScheduled).
		WillReturnResult(sqlmock.NewResult(id, 1))
	mock.ExpectExec(`INSERT INTO show_seats`).WillReturnResult(sqlmock.NewResult(0, 80))
}

func slotRow(start string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "movie_id", "title", "room_id", "cinema_id", "cinema", "start", "room", "end", "status"}).
		AddRow(30, 550, "Fight Club", 7, 1, "Landmark", start, "Room 1", "2025-03-20 21:50:00", model.ShowScheduled)
}

func postShowtimes(h *ShowtimeHandler, body string) (int, string) {
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/showtimes", body)
	run(e, c, h.Create)
	return rec.Code, rec.Body.String()
}

func TestShowtimeCreateBatch(t *testing.T) {
	h, mock, hub := newShowtime(t)
	mock.ExpectBegin()
	expectScheduled(mock, 30, "2025-03-20 19:30:00", "2025-03-20 21:50:00")
	expectScheduled(mock, 31, "2025-03-20 22:00:00", "2025-03-21 00:20:00")
	mock.ExpectCommit()

	code, body := postShowtimes(h, `[
		{"movie_id":550,"room_id":7,"start_time":"2025-03-20T19:30","end_time":"2025-03-20T21:50"},
		{"movie_id":550,"room_id":7,"start_time":"2025-03-20 22:00:00","end_time":"2025-03-21 00:20:00"}]`)

	assert.Equal(t, http.StatusCreated, code)
	assert.JSONEq(t, `{"ids":[30,31]}`, body)
	assert.Equal(t, []string{"showtimes_update"}, hub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeCreateSingleObject(t *testing.T) {
	h, mock, _ := newShowtime(t)
	mock.ExpectBegin()
	expectScheduled(mock, 30, "2025-03-20 19:30:00", "2025-03-20 21:50:00")
	mock.ExpectCommit()

	code, body := postShowtimes(h, `{"movie_id":550,"room_id":7,"start_time":"2025-03-20T19:30:00Z","end_time":"2025-03-20T21:50:00Z"}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.JSONEq(t, `{"ids":[30]}`, body)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeCreateRejects(t *testing.T) {
	many := make([]string, maxShowtimeBatch+1)
	for i := range many {
		many[i] = `{"movie_id":550,"room_id":7,"start_time":"2025-03-20 19:30","end_time":"2025-03-20 21:50"}`
	}
	cases := map[string]string{
		"empty batch":      `[]`,
		"too many":         "[" + strings.Join(many, ",") + "]",
		"end before start": `{"movie_id":550,"room_id":7,"start_time":"2025-03-20 19:30","end_time":"2025-03-20 18:00"}`,
		"bad time":         `{"movie_id":550,"room_id":7,"start_time":"tonight","end_time":"2025-03-20 18:00"}`,
		"missing room":     `{"movie_id":550,"start_time":"2025-03-20 19:30","end_time":"2025-03-20 21:50"}`,
		"not json":         `showtime`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h, mock, hub := newShowtime(t)
			code, _ := postShowtimes(h, body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Empty(t, hub.events)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestShowtimeCreateOverlap(t *testing.T) {
	h, mock, hub := newShowtime(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT cinema_id FROM rooms`).WillReturnRows(sqlmock.NewRows([]string{"cinema_id"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM movies`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM showtimes`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	code, body := postShowtimes(h, `{"movie_id":550,"room_id":7,"start_time":"2025-03-20 19:30","end_time":"2025-03-20 21:50"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, body, "2025-03-20 19:30:00")
	assert.Empty(t, hub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeUpdateWindow(t *testing.T) {
	update := func(h *ShowtimeHandler) (int, string) {
		e := newEcho()
		c, rec := newRequest(e, http.MethodPut, "/api/showtimes/30",
			`{"start_time":"2025-03-20 20:00","end_time":"2025-03-20 22:20"}`)
		c.SetParamNames("id")
		c.SetParamValues("30")
		run(e, c, h.Update)
		return rec.Code, rec.Body.String()
	}

	t.Run("less than a day ahead", func(t *testing.T) {
		h, mock, _ := newShowtime(t)
		mock.ExpectQuery(`FROM showtimes s`).WithArgs(30).WillReturnRows(slotRow("2025-03-14 20:00:00"))
		code, body := update(h)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Contains(t, body, "at least one day")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps status", func(t *testing.T) {
		h, mock, hub := newShowtime(t)
		mock.ExpectQuery(`FROM showtimes s`).WithArgs(30).WillReturnRows(slotRow("2025-03-20 19:30:00"))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT room_id FROM showtimes`).WillReturnRows(sqlmock.NewRows([]string{"room_id"}).AddRow(7))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM showtimes`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
		mock.ExpectExec(`UPDATE showtimes SET`).
			WithArgs("2025-03-20 20:00:00", "2025-03-20 22:20:00", model.ShowScheduled, 30).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		code, _ := update(h)
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, hub.data, 1)
		assert.Equal(t, echo.Map{"ids": []uint64{30}}, hub.data[0])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		h, mock, _ := newShowtime(t)
		mock.ExpectQuery(`FROM showtimes s`).WillReturnRows(sqlmock.NewRows(nil))
		code, _ := update(h)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestShowtimeDelete(t *testing.T) {
	remove := func(h *ShowtimeHandler) int {
		e := newEcho()
		c, rec := newRequest(e, http.MethodDelete, "/api/showtimes/30", "")
		c.SetParamNames("id")
		c.SetParamValues("30")
		run(e, c, h.Delete)
		return rec.Code
	}

	t.Run("started", func(t *testing.T) {
		h, mock, _ := newShowtime(t)
		mock.ExpectQuery(`FROM showtimes s`).WillReturnRows(slotRow("2025-03-14 08:30:00"))
		assert.Equal(t, http.StatusBadRequest, remove(h))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sold", func(t *testing.T) {
		h, mock, _ := newShowtime(t)
		mock.ExpectQuery(`FROM showtimes s`).WillReturnRows(slotRow("2025-03-14 20:00:00"))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT 1 FROM showtimes`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
		mock.ExpectRollback()
		assert.Equal(t, http.StatusConflict, remove(h))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("later today", func(t *testing.T) {
		h, mock, hub := newShowtime(t)
		mock.ExpectQuery(`FROM showtimes s`).WillReturnRows(slotRow("2025-03-14 20:00:00"))
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT 1 FROM showtimes`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM orders`).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
		mock.ExpectExec(`DELETE FROM show_seats`).WillReturnResult(sqlmock.NewResult(0, 80))
		mock.ExpectExec(`DELETE FROM showtimes`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		assert.Equal(t, http.StatusNoContent, remove(h))
		assert.Equal(t, []string{"showtimes_update"}, hub.events)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
