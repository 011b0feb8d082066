package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/service"
)

var (
	ErrShowtimeNotFound = errors.New("showtime not found")
	ErrOrderNotFound    = errors.New("order not found")
	// ErrSeatNotFound is returned when a requested seat is not part of the
	// showtime.
	ErrSeatNotFound = errors.New("one or more seats do not exist for this showtime")
	// ErrSeatUnavailable is returned when a requested seat is already held
	// or booked.
	ErrSeatUnavailable = errors.New("one or more seats are no longer available")
	// ErrNoPrice is returned when the cinema has no price for a seat type.
	ErrNoPrice = errors.New("no ticket price configured for seat type")
	// ErrAmountMismatch is returned when a transfer does not match the order
	// total.
	ErrAmountMismatch = errors.New("transfer amount does not match order total")
)

// DefaultHold is how long a pending order keeps its seats.
const DefaultHold = 15 * time.Minute

type OrderRepo struct {
	db *sql.DB
	// Hold bounds how long a pending order keeps its seats.  Zero disables
	// expiry.
	Hold time.Duration
}

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db, Hold: DefaultHold} }

// NewOrder is the input of Create.  Exactly one of UserID and EmployeeID is
// normally set: customers book for themselves, employees sell at the counter.
type NewOrder struct {
	UserID        *uint64
	EmployeeID    *uint64
	ShowtimeID    uint64
	SeatIDs       []uint64
	PromotionID   *uint64
	PaymentMethod string
}

const showtimeSelect = `SELECT s.id, s.movie_id, COALESCE(m.title,''), s.room_id, rm.cinema_id, COALESCE(cc.name,''),
	DATE_FORMAT(s.start_time,'%Y-%m-%d %H:%i:%s')
	FROM showtimes s
	JOIN rooms rm ON rm.id = s.room_id
	LEFT JOIN cinema_clusters cc ON cc.id = rm.cinema_id
	LEFT JOIN movies m ON m.id = s.movie_id
	WHERE s.id = ?`

type queryRower interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func getShowtime(ctx context.Context, q queryRower, id uint64) (model.Showtime, error) {
	var s model.Showtime
	err := q.QueryRowContext(ctx, showtimeSelect, id).Scan(&s.ID, &s.MovieID, &s.MovieTitle, &s.RoomID,
		&s.CinemaID, &s.CinemaName, &s.StartTime)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrShowtimeNotFound
	}
	return s, err
}

// GetShowtime returns a showtime with its movie and cinema.
func (r *OrderRepo) GetShowtime(ctx context.Context, id uint64) (model.Showtime, error) {
	return getShowtime(ctx, r.db, id)
}

const showSeatSelect = `SELECT ss.id, ss.showtime_id, ss.seat_id, ss.seat_number, COALESCE(st.name,''), ss.status, ss.reservation_id
	FROM show_seats ss
	LEFT JOIN seat_types st ON st.id = ss.seat_type_id`

func scanShowSeats(rows *sql.Rows) ([]model.ShowSeat, error) {
	defer rows.Close()
	out := []model.ShowSeat{}
	for rows.Next() {
		var (
			s   model.ShowSeat
			res sql.NullInt64
		)
		if err := rows.Scan(&s.ID, &s.ShowtimeID, &s.SeatID, &s.SeatNumber, &s.SeatType, &s.Status, &res); err != nil {
			return nil, err
		}
		if res.Valid {
			id := uint64(res.Int64)
			s.ReservationID = &id
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListSeats returns the seat map of a showtime.
func (r *OrderRepo) ListSeats(ctx context.Context, showtimeID uint64) ([]model.ShowSeat, error) {
	rows, err := r.db.QueryContext(ctx, showSeatSelect+" WHERE ss.showtime_id = ? ORDER BY ss.seat_number", showtimeID)
	if err != nil {
		return nil, err
	}
	return scanShowSeats(rows)
}

// Create prices and stores an order in one transaction.  The requested seats
// are locked and must all be available; they end up held against the order,
// or booked when a promotion brings the total to zero (such orders are
// confirmed immediately).  now decides promotion validity.
func (r *OrderRepo) Create(ctx context.Context, in NewOrder, now time.Time) (model.Order, error) {
	o := model.Order{
		UserID:        in.UserID,
		EmployeeID:    in.EmployeeID,
		ShowtimeID:    in.ShowtimeID,
		PromotionID:   in.PromotionID,
		PaymentMethod: in.PaymentMethod,
		Status:        model.OrderPending,
		OrderDate:     now.UTC(),
	}
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		show, err := getShowtime(ctx, tx, in.ShowtimeID)
		if err != nil {
			return err
		}
		day, err := time.ParseInLocation("2006-01-02 15:04:05", show.StartTime, time.UTC)
		if err != nil {
			return fmt.Errorf("showtime %d start: %w", show.ID, err)
		}
		if r.Hold > 0 {
			if err := expireHoldsTx(ctx, tx, in.ShowtimeID, now.Add(-r.Hold)); err != nil {
				return fmt.Errorf("expire holds: %w", err)
			}
		}

		args := make([]any, 0, len(in.SeatIDs)+1)
		args = append(args, in.ShowtimeID)
		for _, id := range in.SeatIDs {
			args = append(args, id)
		}
		rows, err := tx.QueryContext(ctx,
			showSeatSelect+" WHERE ss.showtime_id = ? AND ss.seat_id IN ("+placeholders(len(in.SeatIDs))+") ORDER BY ss.seat_number FOR UPDATE",
			args...)
		if err != nil {
			return err
		}
		seats, err := scanShowSeats(rows)
		if err != nil {
			return err
		}
		if len(seats) != len(in.SeatIDs) {
			return ErrSeatNotFound
		}
		for _, s := range seats {
			if s.Status != model.SeatAvailable || s.ReservationID != nil {
				return fmt.Errorf("seat %s: %w", s.SeatNumber, ErrSeatUnavailable)
			}
		}

		prices, err := listPrices(ctx, tx, show.CinemaID)
		if err != nil {
			return err
		}
		byType := make(map[string]model.TicketPrice, len(prices))
		for _, p := range prices {
			byType[p.SeatType] = p
		}
		for _, s := range seats {
			p, ok := byType[s.SeatType]
			price := service.EffectivePrice(p, day)
			if !ok || price <= 0 {
				return fmt.Errorf("%s: %w", s.SeatType, ErrNoPrice)
			}
			o.Tickets = append(o.Tickets, model.OrderTicket{
				SeatID: s.SeatID, SeatNumber: s.SeatNumber, SeatType: s.SeatType, TicketPrice: price,
			})
			o.Subtotal += price
		}

		if in.PromotionID != nil {
			p, err := scanPromotion(tx.QueryRowContext(ctx, promotionSelect+" WHERE id = ? FOR UPDATE", *in.PromotionID))
			if errors.Is(err, sql.ErrNoRows) {
				return ErrPromotionNotFound
			}
			if err != nil {
				return err
			}
			if err := service.Redeemable(p, now); err != nil {
				return err
			}
			if o.Discount, err = service.Discount(p, o.Subtotal); err != nil {
				return err
			}
			if err := redeemTx(ctx, tx, p.ID); err != nil {
				return err
			}
		}
		o.TotalAmount = o.Subtotal - o.Discount
		seatStatus := model.SeatHeld
		if o.TotalAmount <= 0 {
			o.TotalAmount = 0
			o.Status = model.OrderConfirmed
			seatStatus = model.SeatBooked
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO orders (user_id, employee_id, showtime_id, promotion_id, order_date, status, payment_method,
			 subtotal, discount_amount, total_amount) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			in.UserID, in.EmployeeID, in.ShowtimeID, in.PromotionID, o.OrderDate, o.Status, in.PaymentMethod,
			o.Subtotal, o.Discount, o.TotalAmount)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		o.ID = uint64(id)

		targs := make([]any, 0, len(o.Tickets)*4)
		for _, t := range o.Tickets {
			targs = append(targs, o.ID, in.ShowtimeID, t.SeatID, t.TicketPrice)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO orderticket (order_id, showtime_id, seat_id, ticket_price) VALUES "+tuples(len(o.Tickets), 4),
			targs...); err != nil {
			return fmt.Errorf("insert tickets: %w", err)
		}

		sargs := make([]any, 0, len(in.SeatIDs)+3)
		sargs = append(sargs, seatStatus, o.ID, in.ShowtimeID)
		for _, id := range in.SeatIDs {
			sargs = append(sargs, id)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE show_seats SET status = ?, reservation_id = ?, updated_at = NOW() WHERE showtime_id = ? AND seat_id IN ("+
				placeholders(len(in.SeatIDs))+")",
			sargs...); err != nil {
			return fmt.Errorf("hold seats: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// expireHoldsTx cancels the showtime's pending orders placed before cutoff
// and frees the seats they held, so abandoned payments do not block a seat
// map.
func expireHoldsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, cutoff time.Time) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT order_id FROM orders WHERE showtime_id = ? AND status = 'pending' AND order_date <= ? FOR UPDATE",
		showtimeID, cutoff.UTC())
	if err != nil {
		return err
	}
	var ids []any
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	in := "(" + placeholders(len(ids)) + ")"
	if _, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = 'cancelled', updated_at = NOW() WHERE order_id IN "+in, ids...); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE show_seats SET status = 'available', reservation_id = NULL, updated_at = NOW() WHERE status = 'held' AND reservation_id IN "+in,
		ids...)
	return err
}

// Get returns an order with its tickets.
func (r *OrderRepo) Get(ctx context.Context, id uint64) (model.Order, error) {
	var o model.Order
	var user, employee, promo sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT order_id, user_id, employee_id, showtime_id, promotion_id, status, COALESCE(payment_method,''),
		 COALESCE(subtotal,0), COALESCE(discount_amount,0), total_amount, order_date
		 FROM orders WHERE order_id = ?`, id).Scan(&o.ID, &user, &employee, &o.ShowtimeID, &promo, &o.Status,
		&o.PaymentMethod, &o.Subtotal, &o.Discount, &o.TotalAmount, &o.OrderDate)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrOrderNotFound
	}
	if err != nil {
		return o, err
	}
	o.UserID = nullID(user)
	o.EmployeeID = nullID(employee)
	o.PromotionID = nullID(promo)

	rows, err := r.db.QueryContext(ctx,
		`SELECT ot.seat_id, COALESCE(ss.seat_number,''), COALESCE(st.name,''), ot.ticket_price
		 FROM orderticket ot
		 LEFT JOIN show_seats ss ON ss.showtime_id = ot.showtime_id AND ss.seat_id = ot.seat_id
		 LEFT JOIN seat_types st ON st.id = ss.seat_type_id
		 WHERE ot.order_id = ? ORDER BY ss.seat_number`, id)
	if err != nil {
		return o, err
	}
	defer rows.Close()
	for rows.Next() {
		var t model.OrderTicket
		if err := rows.Scan(&t.SeatID, &t.SeatNumber, &t.SeatType, &t.TicketPrice); err != nil {
			return o, err
		}
		o.Tickets = append(o.Tickets, t)
	}
	return o, rows.Err()
}

func nullID(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	id := uint64(n.Int64)
	return &id
}

// Payment is a bank transfer notification matched to an order.
type Payment struct {
	OrderID       uint64
	Amount        float64
	Incoming      bool
	TransactionID string
	Gateway       string
	Date          time.Time
}

// PaymentResult reports what ApplyPayment did.  Confirmed carries the data
// the booking event needs.
type PaymentResult struct {
	AlreadyProcessed bool
	Status           string
	Confirmed        *ConfirmedOrder
}

// ConfirmedOrder is an order that a payment just confirmed.
type ConfirmedOrder struct {
	Order    model.Order
	Showtime model.Showtime
	Seats    []string
}

// ApplyPayment settles a pending order.  An incoming transfer of the order
// total confirms it, books its seats and credits membership points; any
// other transfer type cancels it and frees the seats.  Orders that are no
// longer pending are reported as already processed and left untouched.
func (r *OrderRepo) ApplyPayment(ctx context.Context, p Payment) (PaymentResult, error) {
	var out PaymentResult
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			o    model.Order
			user sql.NullInt64
		)
		err := tx.QueryRowContext(ctx,
			"SELECT order_id, user_id, showtime_id, status, COALESCE(payment_method,''), total_amount FROM orders WHERE order_id = ? FOR UPDATE",
			p.OrderID).Scan(&o.ID, &user, &o.ShowtimeID, &o.Status, &o.PaymentMethod, &o.TotalAmount)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		o.UserID = nullID(user)
		if o.Status != model.OrderPending {
			out = PaymentResult{AlreadyProcessed: true, Status: o.Status}
			return nil
		}
		if !service.SameAmount(o.TotalAmount, p.Amount) {
			return ErrAmountMismatch
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (order_id, transaction_id, gateway, amount, transfer_type, transaction_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, p.TransactionID, p.Gateway, p.Amount, transferType(p.Incoming), p.Date); err != nil {
			if isDuplicate(err) {
				out = PaymentResult{AlreadyProcessed: true, Status: o.Status}
				return nil
			}
			return fmt.Errorf("record payment: %w", err)
		}

		if !p.Incoming {
			if _, err := tx.ExecContext(ctx,
				"UPDATE orders SET status = 'cancelled', updated_at = NOW() WHERE order_id = ?", o.ID); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"UPDATE show_seats SET status = 'available', reservation_id = NULL, updated_at = NOW() WHERE reservation_id = ?",
				o.ID); err != nil {
				return err
			}
			out = PaymentResult{Status: model.OrderCancelled}
			return nil
		}

		var seats []string
		rows, err := tx.QueryContext(ctx,
			"SELECT seat_number FROM show_seats WHERE reservation_id = ? ORDER BY seat_number", o.ID)
		if err != nil {
			return err
		}
		for rows.Next() {
			var s string
			if err := rows.Scan(&s); err != nil {
				rows.Close()
				return err
			}
			seats = append(seats, s)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE orders SET status = 'confirmed', updated_at = NOW() WHERE order_id = ?", o.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE show_seats SET status = 'booked', reservation_id = NULL, updated_at = NOW() WHERE reservation_id = ?",
			o.ID); err != nil {
			return err
		}
		if o.UserID != nil {
			if err := addPointsTx(ctx, tx, *o.UserID, service.PointsFor(o.TotalAmount)); err != nil {
				return fmt.Errorf("credit points: %w", err)
			}
		}
		show, err := getShowtime(ctx, tx, o.ShowtimeID)
		if err != nil {
			return err
		}
		o.Status = model.OrderConfirmed
		out = PaymentResult{Status: o.Status, Confirmed: &ConfirmedOrder{Order: o, Showtime: show, Seats: seats}}
		return nil
	})
	return out, err
}

func transferType(in bool) string {
	if in {
		return "in"
	}
	return "out"
}
