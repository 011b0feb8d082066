package handler

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
)

func newCinema(t *testing.T) (*CinemaHandler, sqlmock.Sqlmock, *fakeHub) {
	t.Helper()
	db, mock := newMock(t)
	hub := &fakeHub{}
	return NewCinemaHandler(repository.NewCinemaRepo(db), repository.NewUserRepo(db), &Changes{Hub: hub}), mock, hub
}

func roleRow(role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"role"}).AddRow(role)
}

func TestCinemaCreate(t *testing.T) {
	create := func(h *CinemaHandler, body string) int {
		e := newEcho()
		c, rec := newRequest(e, http.MethodPost, "/api/cinemas", body)
		run(e, c, h.Create)
		return rec.Code
	}

	t.Run("announces the new cluster", func(t *testing.T) {
		h, mock, hub := newCinema(t)
		mock.ExpectQuery(`SELECT role FROM users WHERE id = \?`).WithArgs(3).WillReturnRows(roleRow(model.RoleManager))
		mock.ExpectExec(`INSERT INTO cinema_clusters`).WillReturnResult(sqlmock.NewResult(4, 1))
		assert.Equal(t, http.StatusCreated, create(h, `{"name":" Landmark ","manager_id":3,"email":"lm@example.com"}`))
		require.Equal(t, []string{"cinemaAdded"}, hub.events)
		cl := hub.data[0].(model.Cluster)
		assert.Equal(t, uint64(4), cl.ID)
		assert.Equal(t, "Landmark", cl.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("manager must hold the role", func(t *testing.T) {
		h, mock, hub := newCinema(t)
		mock.ExpectQuery(`SELECT role FROM users`).WillReturnRows(roleRow(model.RoleEmployee))
		assert.Equal(t, http.StatusBadRequest, create(h, `{"name":"Landmark","manager_id":3}`))
		assert.Empty(t, hub.events)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate name", func(t *testing.T) {
		h, mock, _ := newCinema(t)
		mock.ExpectExec(`INSERT INTO cinema_clusters`).WillReturnError(&mysql.MySQLError{Number: 1062})
		assert.Equal(t, http.StatusConflict, create(h, `{"name":"Landmark"}`))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bad email", func(t *testing.T) {
		h, mock, _ := newCinema(t)
		assert.Equal(t, http.StatusBadRequest, create(h, `{"name":"Landmark","email":"nope"}`))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCinemaUpdateMissing(t *testing.T) {
	h, mock, hub := newCinema(t)
	mock.ExpectExec(`UPDATE cinema_clusters SET name=\?`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM cinema_clusters WHERE id = \?`).WithArgs(9).WillReturnError(sql.ErrNoRows)

	e := newEcho()
	c, rec := newRequest(e, http.MethodPut, "/api/cinemas/9", `{"name":"Landmark"}`)
	c.SetParamNames("id")
	c.SetParamValues("9")
	run(e, c, h.Update)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, hub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCinemaUpdateUnchangedRow(t *testing.T) {
	h, mock, hub := newCinema(t)
	mock.ExpectExec(`UPDATE cinema_clusters SET name=\?`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM cinema_clusters WHERE id = \?`).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	e := newEcho()
	c, rec := newRequest(e, http.MethodPut, "/api/cinemas/1", `{"name":"Landmark","rooms":6}`)
	c.SetParamNames("id")
	c.SetParamValues("1")
	run(e, c, h.Update)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"cinemaUpdated"}, hub.events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCinemaAssignManager(t *testing.T) {
	assign := func(h *CinemaHandler, body string) (int, string) {
		e := newEcho()
		c, rec := newRequest(e, http.MethodPut, "/api/cinemas/1/manager", body)
		c.SetParamNames("id")
		c.SetParamValues("1")
		run(e, c, h.AssignManager)
		return rec.Code, rec.Body.String()
	}

	t.Run("assigns and announces", func(t *testing.T) {
		h, mock, hub := newCinema(t)
		mock.ExpectQuery(`SELECT role FROM users`).WithArgs(3).WillReturnRows(roleRow(model.RoleManager))
		mock.ExpectExec(`UPDATE cinema_clusters SET manager_id=\? WHERE id=\?`).WithArgs(3, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM cinema_clusters cc`).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "manager_id", "manager_name", "manager_phone", "phone", "email",
			"province", "district", "address", "rooms", "staff"}).
			AddRow(1, "Landmark", "", 3, "Lan", "0901", "", "", "79", "760", "", 6, 12))

		code, body := assign(h, `{"manager_id":3}`)
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, `"manager_name":"Lan"`)
		require.Equal(t, []string{"cinemaUpdated"}, hub.events)
		cl := hub.data[0].(model.Cluster)
		require.NotNil(t, cl.ManagerID)
		assert.Equal(t, uint64(3), *cl.ManagerID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not a manager", func(t *testing.T) {
		h, mock, _ := newCinema(t)
		mock.ExpectQuery(`SELECT role FROM users`).WillReturnRows(roleRow(model.RoleCustomer))
		code, _ := assign(h, `{"manager_id":3}`)
		assert.Equal(t, http.StatusBadRequest, code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown cinema", func(t *testing.T) {
		h, mock, _ := newCinema(t)
		mock.ExpectQuery(`SELECT role FROM users`).WillReturnRows(roleRow(model.RoleManager))
		mock.ExpectExec(`UPDATE cinema_clusters SET manager_id`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT 1 FROM cinema_clusters`).WillReturnError(sql.ErrNoRows)
		code, _ := assign(h, `{"manager_id":3}`)
		assert.Equal(t, http.StatusNotFound, code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing body", func(t *testing.T) {
		h, mock, _ := newCinema(t)
		code, _ := assign(h, `{}`)
		assert.Equal(t, http.StatusBadRequest, code)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
