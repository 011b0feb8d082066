package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
)

func TestLeaveCreateRejects(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"weekend only", `{"cinema_cluster_id":1,"leave_type":"annual","start_date":"2025-03-15","end_date":"2025-03-16"}`,
			`{"error":"leave range has no working days"}`},
		{"reversed", `{"cinema_cluster_id":1,"leave_type":"sick","start_date":"2025-03-18","end_date":"2025-03-17"}`,
			`{"error":"end_date is before start_date"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			h := NewLeaveHandler(repository.NewLeaveRepo(db), nil)
			e := newEcho()
			c, rec := newRequest(e, http.MethodPost, "/api/leave", tc.body)
			asUser(c, 5, model.RoleEmployee)
			run(e, c, h.Create)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLeaveCreateValidatesType(t *testing.T) {
	db, _ := newMock(t)
	h := NewLeaveHandler(repository.NewLeaveRepo(db), nil)
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/leave",
		`{"cinema_cluster_id":1,"leave_type":"holiday","start_date":"2025-03-17","end_date":"2025-03-18"}`)
	asUser(c, 5, model.RoleEmployee)
	run(e, c, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "leave_type")
}

func TestLeaveErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{repository.ErrLeaveNotFound, http.StatusNotFound},
		{repository.ErrNotClusterMember, http.StatusNotFound},
		{fmt.Errorf("create: %w", repository.ErrLeaveOverlap), http.StatusBadRequest},
		{repository.ErrInsufficientLeave, http.StatusBadRequest},
		{repository.ErrInvalidTransition, http.StatusBadRequest},
		{repository.ErrForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		c, rec := newRequest(newEcho(), http.MethodGet, "/", "")
		assert.NoError(t, leaveError(c, tc.err))
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}

	c, _ := newRequest(newEcho(), http.MethodGet, "/", "")
	other := errors.New("driver: bad connection")
	assert.Equal(t, other, leaveError(c, other))
}
