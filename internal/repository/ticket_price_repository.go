package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/cinemaops/internal/model"
)

type TicketPriceRepo struct {
	db *sql.DB
}

func NewTicketPriceRepo(db *sql.DB) *TicketPriceRepo { return &TicketPriceRepo{db: db} }

// List returns the stored price rows of a cluster keyed by seat type name.
func (r *TicketPriceRepo) List(ctx context.Context, cinemaID uint64) ([]model.TicketPrice, error) {
	return listPrices(ctx, r.db, cinemaID)
}

func listPrices(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, cinemaID uint64) ([]model.TicketPrice, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT st.name, tp.base_price, COALESCE(tp.weekend_price,0), COALESCE(tp.special_price,0)
		 FROM ticket_prices tp JOIN seat_types st ON st.id = tp.seat_type_id
		 WHERE tp.cinema_id = ? ORDER BY st.id`, cinemaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TicketPrice{}
	for rows.Next() {
		var p model.TicketPrice
		if err := rows.Scan(&p.SeatType, &p.BasePrice, &p.WeekendPrice, &p.SpecialPrice); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert writes the given rows for a cluster in one transaction.  A
// non-zero managerID must manage the cluster; admins pass 0.
func (r *TicketPriceRepo) Upsert(ctx context.Context, cinemaID, managerID uint64, prices []model.TicketPrice) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if managerID != 0 {
			if err := checkClusterManager(ctx, tx, managerID, cinemaID); err != nil {
				return err
			}
		}
		for _, p := range prices {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO ticket_prices (cinema_id, seat_type_id, base_price, weekend_price, special_price, updated_at)
				 VALUES (?, (SELECT id FROM seat_types WHERE name = ?), ?, ?, ?, NOW())
				 ON DUPLICATE KEY UPDATE base_price = VALUES(base_price), weekend_price = VALUES(weekend_price),
				 special_price = VALUES(special_price), updated_at = NOW()`,
				cinemaID, p.SeatType, p.BasePrice, p.WeekendPrice, p.SpecialPrice)
			if err != nil {
				return fmt.Errorf("upsert %s price: %w", p.SeatType, err)
			}
		}
		return nil
	})
}

// CountShowtimes returns how many showtimes the cluster has on date
// (YYYY-MM-DD).
func (r *TicketPriceRepo) CountShowtimes(ctx context.Context, cinemaID uint64, date string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM showtimes s JOIN rooms rm ON rm.id = s.room_id
		 WHERE rm.cinema_id = ? AND DATE(s.start_time) = ?`, cinemaID, date).Scan(&n)
	return n, err
}
