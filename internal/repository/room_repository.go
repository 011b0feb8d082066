package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinemaops/internal/model"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists is returned when the cluster already has a room with the
	// same name.
	ErrRoomExists = errors.New("room already exists in this cinema")
)

// RoomRepo manages screening rooms and their physical seats.
type RoomRepo struct {
	db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomSelect = `SELECT id, cinema_id, name, capacity, COALESCE(type,''), status,
	DATE_FORMAT(created_at,'%Y-%m-%d %H:%i:%s') FROM rooms`

func scanRoom(row interface{ Scan(...any) error }) (model.Room, error) {
	var rm model.Room
	err := row.Scan(&rm.ID, &rm.CinemaID, &rm.Name, &rm.Capacity, &rm.Type, &rm.Status, &rm.CreatedAt)
	return rm, err
}

// Get returns one room.
func (r *RoomRepo) Get(ctx context.Context, id uint64) (model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, roomSelect+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return rm, ErrRoomNotFound
	}
	return rm, err
}

// ListByCinema returns the rooms of a cluster ordered by name.
func (r *RoomRepo) ListByCinema(ctx context.Context, cinemaID uint64) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, roomSelect+" WHERE cinema_id = ? ORDER BY name, id", cinemaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// Create inserts rm together with its seats and refreshes the cluster's
// room count.  rm.ID and rm.Capacity are filled in.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room, seats []model.Seat) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM cinema_clusters WHERE id = ? FOR UPDATE", rm.CinemaID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCinemaNotFound
		}
		if err != nil {
			return err
		}
		rm.Capacity = len(seats)
		res, err := tx.ExecContext(ctx,
			"INSERT INTO rooms (cinema_id, name, capacity, type, status, created_at) VALUES (?,?,?,?,?,NOW())",
			rm.CinemaID, rm.Name, rm.Capacity, rm.Type, rm.Status)
		if err != nil {
			if isDuplicate(err) {
				return ErrRoomExists
			}
			return fmt.Errorf("insert room: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rm.ID = uint64(id)

		if len(seats) > 0 {
			vals := make([]string, 0, len(seats))
			args := make([]any, 0, len(seats)*3)
			for _, s := range seats {
				vals = append(vals, "(?, ?, (SELECT id FROM seat_types WHERE name = ?))")
				args = append(args, rm.ID, s.SeatNumber, s.SeatType)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO seats (room_id, seat_number, seat_type_id) VALUES "+strings.Join(vals, ","), args...); err != nil {
				return fmt.Errorf("insert seats: %w", err)
			}
		}
		return syncRoomCount(ctx, tx, rm.CinemaID)
	})
}

// Update changes the name, type and status of a room.  The seat plan is
// left alone.
func (r *RoomRepo) Update(ctx context.Context, rm model.Room) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRoom(ctx, tx, rm.ID, nil); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "UPDATE rooms SET name = ?, type = ?, status = ? WHERE id = ?",
			rm.Name, rm.Type, rm.Status, rm.ID)
		if isDuplicate(err) {
			return ErrRoomExists
		}
		return err
	})
}

// Delete removes a room that has never been scheduled.  Rooms with
// showtimes return ErrConflict.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var cinemaID uint64
		if err := lockRoom(ctx, tx, id, &cinemaID); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM showtimes WHERE room_id = ?", id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM seats WHERE room_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id); err != nil {
			return err
		}
		return syncRoomCount(ctx, tx, cinemaID)
	})
}

// lockRoom locks the room row and optionally reports its cluster.
func lockRoom(ctx context.Context, tx *sql.Tx, id uint64, cinemaID *uint64) error {
	var cid uint64
	err := tx.QueryRowContext(ctx, "SELECT cinema_id FROM rooms WHERE id = ? FOR UPDATE", id).Scan(&cid)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return err
	}
	if cinemaID != nil {
		*cinemaID = cid
	}
	return nil
}

func syncRoomCount(ctx context.Context, tx *sql.Tx, cinemaID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE cinema_clusters SET rooms = (SELECT COUNT(*) FROM rooms WHERE cinema_id = ?) WHERE id = ?",
		cinemaID, cinemaID)
	return err
}
