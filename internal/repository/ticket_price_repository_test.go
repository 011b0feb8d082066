package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemaops/internal/model"
)

func TestTicketPriceUpsert(t *testing.T) {
	prices := []model.TicketPrice{{SeatType: model.SeatVIP, BasePrice: 90000, WeekendPrice: 110000}}

	t.Run("admin", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO ticket_prices`).WithArgs(1, "VIP", 90000.0, 110000.0, 0.0).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		require.NoError(t, NewTicketPriceRepo(db).Upsert(context.Background(), 1, 0, prices))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("manager of the cinema", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT 1 FROM cinema_clusters WHERE id = \? AND manager_id = \?`).WithArgs(1, 3).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectExec(`INSERT INTO ticket_prices`).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		require.NoError(t, NewTicketPriceRepo(db).Upsert(context.Background(), 1, 3, prices))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("manager of another cinema", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT 1 FROM cinema_clusters`).WithArgs(2, 3).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()
		err := NewTicketPriceRepo(db).Upsert(context.Background(), 2, 3, prices)
		assert.ErrorIs(t, err, ErrForbidden)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountShowtimes(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM showtimes s JOIN rooms rm`).WithArgs(1, "2025-03-15").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(4))
	n, err := NewTicketPriceRepo(db).CountShowtimes(context.Background(), 1, "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
