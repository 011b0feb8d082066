package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinemaops/internal/model"
)

var ErrPromotionNotFound = errors.New("promotion not found")

type PromotionRepo struct {
	db *sql.DB
}

func NewPromotionRepo(db *sql.DB) *PromotionRepo { return &PromotionRepo{db: db} }

const promotionSelect = `SELECT id, code, name, COALESCE(description,''), discount_type, discount_value,
	COALESCE(min_order,0), max_discount, DATE_FORMAT(start_date,'%Y-%m-%d'), DATE_FORMAT(end_date,'%Y-%m-%d'),
	quantity, used_count, status FROM promotions`

func scanPromotion(row interface{ Scan(...any) error }) (model.Promotion, error) {
	var (
		p   model.Promotion
		max sql.NullFloat64
	)
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.DiscountType, &p.DiscountValue,
		&p.MinOrder, &max, &p.StartDate, &p.EndDate, &p.Quantity, &p.UsedCount, &p.Status)
	if max.Valid {
		v := max.Float64
		p.MaxDiscount = &v
	}
	return p, err
}

func (r *PromotionRepo) query(ctx context.Context, q string, args ...any) ([]model.Promotion, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Promotion{}
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// List returns every promotion, newest first.
func (r *PromotionRepo) List(ctx context.Context) ([]model.Promotion, error) {
	return r.query(ctx, promotionSelect+" ORDER BY id DESC")
}

// ListActive returns promotions whose stored status is active.
func (r *PromotionRepo) ListActive(ctx context.Context) ([]model.Promotion, error) {
	return r.query(ctx, promotionSelect+" WHERE status = 'active' ORDER BY end_date, id")
}

// Get fetches one promotion.
func (r *PromotionRepo) Get(ctx context.Context, id uint64) (model.Promotion, error) {
	p, err := scanPromotion(r.db.QueryRowContext(ctx, promotionSelect+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrPromotionNotFound
	}
	return p, err
}

// RefreshStatuses moves date-derived statuses forward: upcoming promotions
// whose window opened become active and anything past its end date becomes
// expired.  Inactive promotions are left alone.
func (r *PromotionRepo) RefreshStatuses(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE promotions SET status = CASE
		   WHEN end_date < CURDATE() THEN 'expired'
		   WHEN start_date > CURDATE() THEN 'upcoming'
		   ELSE 'active' END
		 WHERE status <> 'inactive'`)
	return err
}

// Create inserts p and fills p.ID.  Duplicate codes yield ErrConflict.
func (r *PromotionRepo) Create(ctx context.Context, p *model.Promotion) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO promotions (code, name, description, discount_type, discount_value, min_order, max_discount,
		 start_date, end_date, quantity, status) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.Code, p.Name, p.Description, p.DiscountType, p.DiscountValue, p.MinOrder, p.MaxDiscount,
		p.StartDate, p.EndDate, p.Quantity, p.Status)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert promotion: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update overwrites promotion p.ID.
func (r *PromotionRepo) Update(ctx context.Context, p model.Promotion) error {
	if _, err := r.Get(ctx, p.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE promotions SET code=?, name=?, description=?, discount_type=?, discount_value=?,
		 min_order=?, max_discount=?, start_date=?, end_date=?, quantity=?, status=? WHERE id=?`,
		p.Code, p.Name, p.Description, p.DiscountType, p.DiscountValue, p.MinOrder, p.MaxDiscount,
		p.StartDate, p.EndDate, p.Quantity, p.Status, p.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("update promotion: %w", err)
	}
	return nil
}

// Delete removes a promotion.
func (r *PromotionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM promotions WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

// Stats counts promotions per status plus the exhausted ones.  Quantity 0
// is unlimited, as in PromotionSummary.
func (r *PromotionRepo) Stats(ctx context.Context) (model.PromotionStats, error) {
	var s model.PromotionStats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		 COALESCE(SUM(status = 'active'),0), COALESCE(SUM(status = 'upcoming'),0),
		 COALESCE(SUM(status = 'expired'),0), COALESCE(SUM(status = 'inactive'),0),
		 COALESCE(SUM(quantity > 0 AND used_count >= quantity),0)
		 FROM promotions`).Scan(&s.Total, &s.Active, &s.Upcoming, &s.Expired, &s.Inactive, &s.OutOfStock)
	return s, err
}

// redeemTx counts one use of a promotion inside an order transaction.  The
// guard keeps used_count from passing quantity under concurrent checkouts.
func redeemTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE promotions SET used_count = used_count + 1 WHERE id = ? AND (quantity = 0 OR used_count < quantity)", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}
