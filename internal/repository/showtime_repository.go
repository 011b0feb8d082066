package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinemaops/internal/model"
)

var (
	ErrMovieNotFound = errors.New("movie not found")
	// ErrShowtimeOverlap is returned when a room already has a showtime
	// overlapping the requested window.
	ErrShowtimeOverlap = errors.New("room already has a showtime in this window")
	// ErrRoomHasNoSeats is returned when a showtime is scheduled in a room
	// without a seat plan.
	ErrRoomHasNoSeats = errors.New("room has no seats")
)

// ShowtimeRepo schedules showtimes.  Creating a showtime copies the room's
// seats into show_seats, which is what bookings claim.
type ShowtimeRepo struct {
	db *sql.DB
}

func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// NewShowtime is one entry of a scheduling batch.  Times use
// service.ShowtimeLayout.
type NewShowtime struct {
	MovieID   uint64
	RoomID    uint64
	StartTime string
	EndTime   string
}

const slotSelect = `SELECT s.id, s.movie_id, COALESCE(m.title,''), s.room_id, rm.cinema_id, COALESCE(cc.name,''),
	DATE_FORMAT(s.start_time,'%Y-%m-%d %H:%i:%s'), rm.name, DATE_FORMAT(s.end_time,'%Y-%m-%d %H:%i:%s'), s.status
	FROM showtimes s
	JOIN rooms rm ON rm.id = s.room_id
	LEFT JOIN cinema_clusters cc ON cc.id = rm.cinema_id
	LEFT JOIN movies m ON m.id = s.movie_id`

func scanSlot(row interface{ Scan(...any) error }) (model.ShowtimeSlot, error) {
	var s model.ShowtimeSlot
	err := row.Scan(&s.ID, &s.MovieID, &s.MovieTitle, &s.RoomID, &s.CinemaID, &s.CinemaName,
		&s.StartTime, &s.RoomName, &s.EndTime, &s.Status)
	return s, err
}

// Get returns one showtime.
func (r *ShowtimeRepo) Get(ctx context.Context, id uint64) (model.ShowtimeSlot, error) {
	s, err := scanSlot(r.db.QueryRowContext(ctx, slotSelect+" WHERE s.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrShowtimeNotFound
	}
	return s, err
}

// ListByCinema returns the showtimes of a cluster, latest first.
func (r *ShowtimeRepo) ListByCinema(ctx context.Context, cinemaID uint64) ([]model.ShowtimeSlot, error) {
	rows, err := r.db.QueryContext(ctx, slotSelect+" WHERE rm.cinema_id = ? ORDER BY s.start_time DESC, s.id DESC", cinemaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ShowtimeSlot{}
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateBatch schedules every entry in one transaction and returns the new
// ids in input order.  One failing entry rejects the whole batch.
func (r *ShowtimeRepo) CreateBatch(ctx context.Context, batch []NewShowtime) ([]uint64, error) {
	ids := make([]uint64, 0, len(batch))
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, in := range batch {
			if err := lockRoom(ctx, tx, in.RoomID, nil); err != nil {
				return err
			}
			var one int
			err := tx.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id = ?", in.MovieID).Scan(&one)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrMovieNotFound
			}
			if err != nil {
				return err
			}
			if err := checkOverlap(ctx, tx, in.RoomID, in.StartTime, in.EndTime, 0); err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx,
				"INSERT INTO showtimes (movie_id, room_id, start_time, end_time, status) VALUES (?,?,?,?,?)",
				in.MovieID, in.RoomID, in.StartTime, in.EndTime, model.ShowScheduled)
			if err != nil {
				return fmt.Errorf("insert showtime: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			res, err = tx.ExecContext(ctx,
				`INSERT INTO show_seats (showtime_id, seat_id, seat_number, seat_type_id, status)
				 SELECT ?, st.id, st.seat_number, st.seat_type_id, ? FROM seats st WHERE st.room_id = ?`,
				id, model.SeatAvailable, in.RoomID)
			if err != nil {
				return fmt.Errorf("insert show seats: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrRoomHasNoSeats
			}
			ids = append(ids, uint64(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Update moves a showtime and sets its status.
func (r *ShowtimeRepo) Update(ctx context.Context, id uint64, start, end, status string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var roomID uint64
		err := tx.QueryRowContext(ctx, "SELECT room_id FROM showtimes WHERE id = ? FOR UPDATE", id).Scan(&roomID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShowtimeNotFound
		}
		if err != nil {
			return err
		}
		if err := checkOverlap(ctx, tx, roomID, start, end, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE showtimes SET start_time = ?, end_time = ?, status = ? WHERE id = ?",
			start, end, status, id)
		return err
	})
}

// Delete removes a showtime and its seat map.  Showtimes that already have
// orders return ErrConflict.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM showtimes WHERE id = ? FOR UPDATE", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShowtimeNotFound
		}
		if err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders WHERE showtime_id = ?", id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM show_seats WHERE showtime_id = ?", id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM showtimes WHERE id = ?", id)
		return err
	})
}

// checkOverlap fails when room has a live showtime intersecting
// [start, end), ignoring the showtime except.
func checkOverlap(ctx context.Context, tx *sql.Tx, roomID uint64, start, end string, except uint64) error {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM showtimes
		 WHERE room_id = ? AND id <> ? AND status <> ? AND start_time < ? AND end_time > ?`,
		roomID, except, model.ShowCancelled, end, start).Scan(&n)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w (%s)", ErrShowtimeOverlap, start)
	}
	return nil
}
