package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinemaops/internal/config"
	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/queue"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/service"
)

type fakePublisher struct {
	events []queue.BookingConfirmedEvent
	err    error
}

func (f *fakePublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newBooking(t *testing.T) (*BookingHandler, sqlmock.Sqlmock, *fakePublisher, *fakeHub) {
	t.Helper()
	db, mock := newMock(t)
	pub := &fakePublisher{}
	hub := &fakeHub{}
	h := NewBookingHandler(repository.NewOrderRepo(db), config.SePayConfig{WebhookSecret: "s3cret"}, pub, &Changes{Hub: hub})
	h.Now = func() time.Time { return fixedNow }
	return h, mock, pub, hub
}

const paidWebhook = `{"id":1,"gateway":"MBBank","transactionDate":"2025-03-14 08:59:00",
	"content":"123456-DH 42","transferType":"in","transferAmount":90000,"referenceCode":"FT25073"}`

func orderRow(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"order_id", "user_id", "showtime_id", "status", "payment_method", "total_amount"}).
		AddRow(42, 7, 3, status, "sepay", 90000.0)
}

func TestWebhookConfirmsOrder(t *testing.T) {
	h, mock, pub, hub := newBooking(t)
	staff := &fakeHub{}
	h.Changes.Staff = staff
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE order_id = \? FOR UPDATE`).WillReturnRows(orderRow(model.OrderPending))
	mock.ExpectExec(`INSERT INTO payments`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT seat_number FROM show_seats`).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow("A1").AddRow("A2"))
	mock.ExpectExec(`UPDATE orders SET status = 'confirmed'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE show_seats SET status = 'booked'`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE membership_cards SET points`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM showtimes s`).WillReturnRows(sqlmock.NewRows(
		[]string{"id", "movie_id", "title", "room_id", "cinema_id", "name", "start_time"}).
		AddRow(3, 550, "Fight Club", 2, 1, "Landmark", "2025-03-14 19:30:00"))
	mock.ExpectCommit()

	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/webhooks/sepay", paidWebhook)
	run(e, c, h.Webhook)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"order_id":42,"status":"confirmed"}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, uint64(42), ev.OrderID)
	assert.Equal(t, uint64(7), ev.UserID)
	assert.Equal(t, "Fight Club", ev.MovieTitle)
	assert.Equal(t, []string{"A1", "A2"}, ev.Seats)
	assert.Equal(t, "FT25073", ev.TransactionID)
	assert.Equal(t, []string{"order_update"}, staff.events)
	assert.Empty(t, hub.events)
}

func TestWebhookAlreadyProcessed(t *testing.T) {
	h, mock, pub, hub := newBooking(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE order_id = \? FOR UPDATE`).WillReturnRows(orderRow(model.OrderConfirmed))
	mock.ExpectCommit()

	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/webhooks/sepay", paidWebhook)
	run(e, c, h.Webhook)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"already processed","order_id":42,"status":"confirmed"}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, pub.events)
	assert.Empty(t, hub.events)
}

func TestWebhookAmountMismatch(t *testing.T) {
	h, mock, _, _ := newBooking(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE order_id = \? FOR UPDATE`).WillReturnRows(orderRow(model.OrderPending))
	mock.ExpectRollback()

	e := newEcho()
	body := `{"transactionDate":"2025-03-14 08:59:00","content":"123456 DH 42","transferType":"in",
		"transferAmount":50000,"referenceCode":"FT1"}`
	c, rec := newRequest(e, http.MethodPost, "/api/webhooks/sepay", body)
	run(e, c, h.Webhook)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"transfer amount does not match order total"}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"missing fields": `{"content":"123 DH 42"}`,
		"no order id":    `{"transactionDate":"2025-03-14 08:59:00","content":"DH 42","transferAmount":1,"referenceCode":"x"}`,
		"bad date":       `{"transactionDate":"14/03/2025","content":"1 DH 42","transferAmount":1,"referenceCode":"x"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h, mock, _, _ := newBooking(t)
			e := newEcho()
			c, rec := newRequest(e, http.MethodPost, "/api/webhooks/sepay", body)
			run(e, c, h.Webhook)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWebhookSignature(t *testing.T) {
	h, mock, _, _ := newBooking(t)
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/webhooks/sepay", paidWebhook)
	c.Request().Header.Set("X-Signature", "deadbeef")
	run(e, c, h.Webhook)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())

	// A correct signature reaches the database.
	ts, err := service.ParseTransactionDate("2025-03-14 08:59:00")
	require.NoError(t, err)
	sig := service.WebhookSignature("s3cret", "FT25073", 42, "success", 90000, "MBBank", ts)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE order_id = \? FOR UPDATE`).WillReturnRows(orderRow(model.OrderCancelled))
	mock.ExpectCommit()
	c, rec = newRequest(e, http.MethodPost, "/api/webhooks/sepay", paidWebhook)
	c.Request().Header.Set("X-Signature", sig)
	run(e, c, h.Webhook)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookSignatureRawString(t *testing.T) {
	// FT25073 + 42 + success + 90000 + MBBank + 1741942740
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte("FT25073" + "42" + "success" + "90000" + "MBBank" + "1741942740"))
	sig := hex.EncodeToString(mac.Sum(nil))

	h, mock, _, _ := newBooking(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE order_id = \? FOR UPDATE`).WillReturnRows(orderRow(model.OrderConfirmed))
	mock.ExpectCommit()
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/webhooks/sepay", paidWebhook)
	c.Request().Header.Set("X-Signature", sig)
	run(e, c, h.Webhook)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWebhookSignatureWithoutGateway(t *testing.T) {
	body := `{"transactionDate":"2025-03-14 08:59:00","content":"123456-DH 42","transferType":"out",
		"transferAmount":90000,"referenceCode":"FT25073"}`
	ts, err := service.ParseTransactionDate("2025-03-14 08:59:00")
	require.NoError(t, err)
	sig := service.WebhookSignature("s3cret", "FT25073", 42, "failed", 90000, "qr_code", ts)

	h, mock, _, _ := newBooking(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM orders WHERE order_id = \? FOR UPDATE`).WillReturnRows(orderRow(model.OrderCancelled))
	mock.ExpectCommit()
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/webhooks/sepay", body)
	c.Request().Header.Set("X-Signature", sig)
	run(e, c, h.Webhook)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmedEventWithoutUser(t *testing.T) {
	co := &repository.ConfirmedOrder{
		Order:    model.Order{ID: 9, TotalAmount: 120000, PaymentMethod: "sepay"},
		Showtime: model.Showtime{ID: 3, CinemaID: 1, CinemaName: "Landmark", MovieTitle: "Dune", StartTime: "2025-03-14 19:30:00"},
		Seats:    []string{"B4"},
	}
	ev := confirmedEvent(co, "FT9", fixedNow)
	assert.Zero(t, ev.UserID)
	assert.Equal(t, "2025-03-14T09:00:00Z", ev.ConfirmedAt)
	assert.Equal(t, uint64(1), ev.CinemaID)
}

func TestBookingCreateRejectsDuplicateSeats(t *testing.T) {
	h, mock, _, _ := newBooking(t)
	e := newEcho()
	c, rec := newRequest(e, http.MethodPost, "/api/bookings", `{"showtime_id":3,"seat_ids":[5,5]}`)
	asUser(c, 7, model.RoleCustomer)
	run(e, c, h.Create)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"duplicate seat id"}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingStatusHidesOtherCustomersOrders(t *testing.T) {
	h, mock, _, _ := newBooking(t)
	mock.ExpectQuery(`FROM orders WHERE order_id = \?`).WillReturnRows(sqlmock.NewRows([]string{
		"order_id", "user_id", "employee_id", "showtime_id", "promotion_id", "status", "payment_method",
		"subtotal", "discount_amount", "total_amount", "order_date"}).
		AddRow(42, 8, nil, 3, nil, "pending", "sepay", 90000.0, 0.0, 90000.0, fixedNow))
	mock.ExpectQuery(`FROM orderticket ot`).WillReturnRows(sqlmock.NewRows([]string{"seat_id", "seat_number", "name", "ticket_price"}))

	e := newEcho()
	c, rec := newRequest(e, http.MethodGet, "/api/bookings/42/status", "")
	c.SetParamNames("id")
	c.SetParamValues("42")
	asUser(c, 7, model.RoleCustomer)
	run(e, c, h.Status)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderErrorPassesUnknownErrors(t *testing.T) {
	e := newEcho()
	c, _ := newRequest(e, http.MethodGet, "/", "")
	boom := errors.New("boom")
	assert.Equal(t, boom, orderError(c, boom))
}
