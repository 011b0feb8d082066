package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/config"
	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/queue"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/service"
)

// BookingHandler creates orders, reports their status and settles them
// from SePay payment notifications.
type BookingHandler struct {
	Orders    *repository.OrderRepo
	SePay     config.SePayConfig
	Publisher service.EventPublisher // nil disables booking events
	Changes   *Changes
	Now       func() time.Time
}

func NewBookingHandler(or *repository.OrderRepo, sp config.SePayConfig, pub service.EventPublisher, ch *Changes) *BookingHandler {
	return &BookingHandler{Orders: or, SePay: sp, Publisher: pub, Changes: ch, Now: time.Now}
}

type bookingReq struct {
	ShowtimeID    uint64   `json:"showtime_id" validate:"required"`
	SeatIDs       []uint64 `json:"seat_ids" validate:"required,min=1,max=10,dive,required"`
	PromotionID   *uint64  `json:"promotion_id"`
	PaymentMethod string   `json:"payment_method" validate:"omitempty,oneof=sepay cash"`
	UserID        *uint64  `json:"user_id"` // counter sales on behalf of a member
}

func orderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	case errors.Is(err, repository.ErrOrderNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	case errors.Is(err, repository.ErrPromotionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "promotion not found"})
	case errors.Is(err, repository.ErrSeatUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrSeatUnavailable.Error()})
	case errors.Is(err, repository.ErrSeatNotFound),
		errors.Is(err, repository.ErrNoPrice),
		errors.Is(err, repository.ErrAmountMismatch),
		errors.Is(err, service.ErrBelowMinOrder),
		errors.Is(err, service.ErrPromotionInactive),
		errors.Is(err, service.ErrPromotionUsedUp):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return err
}

// Create handles POST /api/bookings.  Customers book for themselves;
// employees sell at the counter and may attach a member's user_id.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookingReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	seen := make(map[uint64]bool, len(req.SeatIDs))
	for _, id := range req.SeatIDs {
		if seen[id] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate seat id"})
		}
		seen[id] = true
	}
	in := repository.NewOrder{
		ShowtimeID:    req.ShowtimeID,
		SeatIDs:       req.SeatIDs,
		PromotionID:   req.PromotionID,
		PaymentMethod: req.PaymentMethod,
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "sepay"
	}
	if getRole(c) == model.RoleCustomer {
		in.UserID = &uid
	} else {
		in.EmployeeID = &uid
		in.UserID = req.UserID
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	o, err := h.Orders.Create(ctx, in, h.Now())
	if err != nil {
		return orderError(c, err)
	}

	out := echo.Map{
		"order_id":     o.ID,
		"status":       o.Status,
		"subtotal":     o.Subtotal,
		"discount":     o.Discount,
		"total_amount": o.TotalAmount,
		"tickets":      o.Tickets,
	}
	if o.Status == model.OrderPending {
		out["description"] = service.OrderDescription(o.ID)
		out["qr_url"] = service.QRURL(h.SePay.QRBase, h.SePay.Account, h.SePay.Bank, o.TotalAmount, o.ID)
	}
	h.Changes.Announce(c, "seats_update", echo.Map{"showtime_id": o.ShowtimeID})
	return c.JSON(http.StatusCreated, out)
}

// Status handles GET /api/bookings/:id/status, polled by the payment page.
func (h *BookingHandler) Status(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	o, err := h.Orders.Get(ctx, id)
	if err != nil {
		return orderError(c, err)
	}
	if getRole(c) == model.RoleCustomer && (o.UserID == nil || *o.UserID != uid) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order_id":     o.ID,
		"status":       o.Status,
		"total_amount": o.TotalAmount,
		"tickets":      o.Tickets,
	})
}

// Seats handles GET /api/showtimes/:id/seats.
func (h *BookingHandler) Seats(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	show, err := h.Orders.GetShowtime(ctx, id)
	if err != nil {
		return orderError(c, err)
	}
	seats, err := h.Orders.ListSeats(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime": show, "seats": seats})
}

// sepayReq is SePay's webhook payload.
type sepayReq struct {
	ID              int64   `json:"id"`
	Gateway         string  `json:"gateway"`
	TransactionDate string  `json:"transactionDate"`
	Content         string  `json:"content"`
	Description     string  `json:"description"`
	TransferType    string  `json:"transferType"`
	TransferAmount  float64 `json:"transferAmount"`
	ReferenceCode   string  `json:"referenceCode"`
}

// Webhook handles POST /api/webhooks/sepay.
func (h *BookingHandler) Webhook(c echo.Context) error {
	var req sepayReq
	if err := c.Bind(&req); err != nil {
		return errInvalidBody
	}
	if req.Content == "" || req.TransferAmount <= 0 || req.ReferenceCode == "" || req.TransactionDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content, transferAmount, referenceCode and transactionDate are required"})
	}
	orderID, err := service.ParseOrderID(req.Content)
	if err != nil && req.Description != "" {
		orderID, err = service.ParseOrderID(req.Description)
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	txnDate, err := service.ParseTransactionDate(req.TransactionDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	incoming := req.TransferType == "in"

	if sig := c.Request().Header.Get("X-Signature"); sig != "" {
		want := service.WebhookSignature(h.SePay.WebhookSecret, req.ReferenceCode, orderID,
			service.SignedStatus(incoming), req.TransferAmount, service.SignedMethod(req.Gateway), txnDate)
		if !service.VerifySignature(want, sig) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
		}
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	res, err := h.Orders.ApplyPayment(ctx, repository.Payment{
		OrderID:       orderID,
		Amount:        req.TransferAmount,
		Incoming:      incoming,
		TransactionID: req.ReferenceCode,
		Gateway:       req.Gateway,
		Date:          txnDate,
	})
	if err != nil {
		return orderError(c, err)
	}
	if res.AlreadyProcessed {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "already processed", "order_id": orderID, "status": res.Status})
	}

	if co := res.Confirmed; co != nil {
		h.publish(c, co, req.ReferenceCode)
	}
	h.Changes.AnnounceStaff(c, "order_update", echo.Map{"order_id": orderID, "status": res.Status})
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order_id": orderID, "status": res.Status})
}

// publish emits booking.confirmed.  The order is already committed, so a
// broker failure is only logged.
func (h *BookingHandler) publish(c echo.Context, co *repository.ConfirmedOrder, txnID string) {
	if h.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Publisher.PublishBookingConfirmed(ctx, confirmedEvent(co, txnID, h.Now())); err != nil {
		c.Logger().Warnf("publish booking %d: %v", co.Order.ID, err)
	}
}

func confirmedEvent(co *repository.ConfirmedOrder, txnID string, at time.Time) queue.BookingConfirmedEvent {
	ev := queue.BookingConfirmedEvent{
		OrderID:       co.Order.ID,
		ShowtimeID:    co.Showtime.ID,
		CinemaID:      co.Showtime.CinemaID,
		CinemaName:    co.Showtime.CinemaName,
		MovieTitle:    co.Showtime.MovieTitle,
		StartsAt:      co.Showtime.StartTime,
		Seats:         co.Seats,
		TotalAmount:   co.Order.TotalAmount,
		PaymentMethod: co.Order.PaymentMethod,
		TransactionID: txnID,
		ConfirmedAt:   at.UTC().Format(time.RFC3339),
	}
	if co.Order.UserID != nil {
		ev.UserID = *co.Order.UserID
	}
	return ev
}
