package handler

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
)

func newMembership(t *testing.T) (*MembershipHandler, sqlmock.Sqlmock, *fakeHub) {
	t.Helper()
	db, mock := newMock(t)
	hub := &fakeHub{}
	return NewMembershipHandler(repository.NewMembershipRepo(db), &Changes{Hub: hub}), mock, hub
}

func cardRow(points int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "points", "created_at"}).AddRow(3, 7, points, "2025-03-01 10:00:00")
}

func tierRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "min_points", "benefits"}).
		AddRow(1, "Silver", 0, "").
		AddRow(2, "Gold", 500, "free popcorn").
		AddRow(3, "Diamond", 2000, "lounge")
}

func TestMembershipRegister(t *testing.T) {
	register := func(h *MembershipHandler) (int, string) {
		e := newEcho()
		c, rec := newRequest(e, http.MethodPost, "/api/memberships/register", "")
		asUser(c, 7, model.RoleCustomer)
		run(e, c, h.Register)
		return rec.Code, rec.Body.String()
	}

	t.Run("new card", func(t *testing.T) {
		h, mock, _ := newMembership(t)
		mock.ExpectExec(`INSERT INTO membership_cards \(user_id, points\) VALUES \(\?, 0\)`).WithArgs(7).
			WillReturnResult(sqlmock.NewResult(3, 1))
		mock.ExpectQuery(`FROM membership_cards WHERE user_id = \?`).WithArgs(7).WillReturnRows(cardRow(0))
		code, body := register(h)
		assert.Equal(t, http.StatusCreated, code)
		assert.JSONEq(t, `{"id":3,"user_id":7,"points":0,"created_at":"2025-03-01 10:00:00","tier":null}`, body)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already a member", func(t *testing.T) {
		h, mock, _ := newMembership(t)
		mock.ExpectExec(`INSERT INTO membership_cards`).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7' for key 'user_id'"})
		code, body := register(h)
		assert.Equal(t, http.StatusConflict, code)
		assert.JSONEq(t, `{"error":"membership already exists"}`, body)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("anonymous", func(t *testing.T) {
		h, _, _ := newMembership(t)
		e := newEcho()
		c, rec := newRequest(e, http.MethodPost, "/api/memberships/register", "")
		run(e, c, h.Register)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestMembershipMeResolvesTier(t *testing.T) {
	cases := []struct {
		points int
		tier   string
	}{
		{0, "Silver"},
		{499, "Silver"},
		{500, "Gold"},
		{2500, "Diamond"},
	}
	for _, tc := range cases {
		h, mock, _ := newMembership(t)
		mock.ExpectQuery(`FROM membership_cards WHERE user_id = \?`).WithArgs(7).WillReturnRows(cardRow(tc.points))
		mock.ExpectQuery(`FROM membership_tiers ORDER BY min_points`).WillReturnRows(tierRows())

		e := newEcho()
		c, rec := newRequest(e, http.MethodGet, "/api/memberships/me", "")
		asUser(c, 7, model.RoleCustomer)
		run(e, c, h.Me)

		require.Equal(t, http.StatusOK, rec.Code, tc.points)
		assert.Contains(t, rec.Body.String(), `"name":"`+tc.tier+`"`, tc.points)
		require.NoError(t, mock.ExpectationsWereMet())
	}
}

func TestMembershipMeWithoutCard(t *testing.T) {
	h, mock, _ := newMembership(t)
	mock.ExpectQuery(`FROM membership_cards`).WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "points", "created_at"}))

	e := newEcho()
	c, rec := newRequest(e, http.MethodGet, "/api/memberships/me", "")
	asUser(c, 7, model.RoleCustomer)
	run(e, c, h.Me)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipTierBroadcast(t *testing.T) {
	h, mock, hub := newMembership(t)
	mock.ExpectExec(`INSERT INTO membership_tiers`).WithArgs("Gold", 500, "free popcorn").
		WillReturnResult(sqlmock.NewResult(2, 1))

	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/membershiptiers", `{"name":" Gold ","min_points":500,"benefits":"free popcorn"}`)
	run(e, c, h.CreateTier)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, []string{"membershiptiers_update"}, hub.events)
	assert.Equal(t, echo.Map{"action": "add", "tier": model.MembershipTier{ID: 2, Name: "Gold", MinPoints: 500, Benefits: "free popcorn"}}, hub.data[0])
	require.NoError(t, mock.ExpectationsWereMet())
}
