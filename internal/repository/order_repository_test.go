package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemaops/internal/model"
)

var orderNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func showtimeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "movie_id", "title", "room_id", "cinema_id", "name", "start_time"}).
		AddRow(3, 550, "Fight Club", 2, 1, "Landmark", "2025-03-15 19:30:00")
}

func seatRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "showtime_id", "seat_id", "seat_number", "type", "status", "reservation_id"})
}

func priceRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"name", "base_price", "weekend_price", "special_price"})
}

func expectNoStaleOrders(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT order_id FROM orders WHERE showtime_id`).WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
}

func TestOrderCreateHoldsSeats(t *testing.T) {
	db, mock := newMock(t)
	user := uint64(7)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM showtimes s`).WithArgs(3).WillReturnRows(showtimeRows())
	mock.ExpectQuery(`SELECT order_id FROM orders WHERE showtime_id = \? AND status = 'pending'`).
		WithArgs(3, orderNow.Add(-DefaultHold)).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(40))
	mock.ExpectExec(`UPDATE orders SET status = 'cancelled'`).WithArgs(40).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE show_seats SET status = 'available'`).WithArgs(40).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM show_seats ss .* FOR UPDATE`).WithArgs(3, 11, 12).WillReturnRows(seatRows().
		AddRow(101, 3, 11, "A1", "Standard", model.SeatAvailable, nil).
		AddRow(102, 3, 12, "A2", "VIP", model.SeatAvailable, nil))
	mock.ExpectQuery(`FROM ticket_prices`).WithArgs(1).WillReturnRows(priceRows().
		AddRow("Standard", 80000.0, 100000.0, 0.0).
		AddRow("VIP", 120000.0, 150000.0, 0.0))
	mock.ExpectExec(`INSERT INTO orders`).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(`INSERT INTO orderticket`).WithArgs(42, 3, 11, 100000.0, 42, 3, 12, 150000.0).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE show_seats SET status`).WithArgs(model.SeatHeld, 42, 3, 11, 12).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	o, err := NewOrderRepo(db).Create(context.Background(), NewOrder{
		UserID: &user, ShowtimeID: 3, SeatIDs: []uint64{11, 12}, PaymentMethod: "sepay",
	}, orderNow)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), o.ID)
	assert.Equal(t, model.OrderPending, o.Status)
	// 2025-03-15 is a Saturday: weekend prices apply.
	assert.Equal(t, 250000.0, o.Subtotal)
	assert.Equal(t, 250000.0, o.TotalAmount)
	assert.Len(t, o.Tickets, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCreateRejectsTakenSeat(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM showtimes s`).WillReturnRows(showtimeRows())
	expectNoStaleOrders(mock)
	mock.ExpectQuery(`FROM show_seats ss`).WillReturnRows(seatRows().
		AddRow(101, 3, 11, "A1", "Standard", model.SeatHeld, 40))
	mock.ExpectRollback()

	_, err := NewOrderRepo(db).Create(context.Background(), NewOrder{ShowtimeID: 3, SeatIDs: []uint64{11}}, orderNow)
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.Contains(t, err.Error(), "A1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderCreateUnknownSeatOrShowtime(t *testing.T) {
	t.Run("seat", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM showtimes s`).WillReturnRows(showtimeRows())
		expectNoStaleOrders(mock)
		mock.ExpectQuery(`FROM show_seats ss`).WillReturnRows(seatRows().
			AddRow(101, 3, 11, "A1", "Standard", model.SeatAvailable, nil))
		mock.ExpectRollback()
		_, err := NewOrderRepo(db).Create(context.Background(), NewOrder{ShowtimeID: 3, SeatIDs: []uint64{11, 99}}, orderNow)
		assert.ErrorIs(t, err, ErrSeatNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("showtime", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM showtimes s`).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()
		_, err := NewOrderRepo(db).Create(context.Background(), NewOrder{ShowtimeID: 3, SeatIDs: []uint64{11}}, orderNow)
		assert.ErrorIs(t, err, ErrShowtimeNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestApplyPaymentOutgoingCancels(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE order_id = \? FOR UPDATE`).WithArgs(42).WillReturnRows(
		sqlmock.NewRows([]string{"order_id", "user_id", "showtime_id", "status", "payment_method", "total_amount"}).
			AddRow(42, nil, 3, model.OrderPending, "sepay", 90000.0))
	mock.ExpectExec(`INSERT INTO payments`).WithArgs(42, "FT1", "MBBank", 90000.0, "out", orderNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE orders SET status = 'cancelled'`).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE show_seats SET status = 'available'`).WithArgs(42).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res, err := NewOrderRepo(db).ApplyPayment(context.Background(), Payment{
		OrderID: 42, Amount: 90000, TransactionID: "FT1", Gateway: "MBBank", Date: orderNow,
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, res.Status)
	assert.False(t, res.AlreadyProcessed)
	assert.Nil(t, res.Confirmed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentDuplicateTransaction(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE order_id = \? FOR UPDATE`).WillReturnRows(
		sqlmock.NewRows([]string{"order_id", "user_id", "showtime_id", "status", "payment_method", "total_amount"}).
			AddRow(42, 7, 3, model.OrderPending, "sepay", 90000.0))
	mock.ExpectExec(`INSERT INTO payments`).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'FT1'"})
	mock.ExpectCommit()

	res, err := NewOrderRepo(db).ApplyPayment(context.Background(), Payment{OrderID: 42, Amount: 90000, Incoming: true, TransactionID: "FT1"})
	require.NoError(t, err)
	assert.True(t, res.AlreadyProcessed)
	require.NoError(t, mock.ExpectationsWereMet())
}
