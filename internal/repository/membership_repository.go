package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinemaops/internal/model"
)

var (
	ErrTierNotFound       = errors.New("membership tier not found")
	ErrMembershipNotFound = errors.New("membership not found")
)

type MembershipRepo struct {
	db *sql.DB
}

func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{db: db} }

// ListTiers returns tiers ordered by threshold.
func (r *MembershipRepo) ListTiers(ctx context.Context) ([]model.MembershipTier, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, min_points, COALESCE(benefits,'') FROM membership_tiers ORDER BY min_points, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.MembershipTier{}
	for rows.Next() {
		var t model.MembershipTier
		if err := rows.Scan(&t.ID, &t.Name, &t.MinPoints, &t.Benefits); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *MembershipRepo) CreateTier(ctx context.Context, t *model.MembershipTier) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO membership_tiers (name, min_points, benefits) VALUES (?, ?, ?)",
		t.Name, t.MinPoints, t.Benefits)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert tier: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *MembershipRepo) UpdateTier(ctx context.Context, t model.MembershipTier) error {
	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM membership_tiers WHERE id = ?", t.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTierNotFound
		}
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE membership_tiers SET name=?, min_points=?, benefits=? WHERE id=?",
		t.Name, t.MinPoints, t.Benefits, t.ID)
	if isDuplicate(err) {
		return ErrConflict
	}
	return err
}

func (r *MembershipRepo) DeleteTier(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM membership_tiers WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTierNotFound
	}
	return nil
}

// Register opens a membership card with zero points.
func (r *MembershipRepo) Register(ctx context.Context, userID uint64) (model.Membership, error) {
	_, err := r.db.ExecContext(ctx, "INSERT INTO membership_cards (user_id, points) VALUES (?, 0)", userID)
	if err != nil {
		if isDuplicate(err) {
			return model.Membership{}, ErrConflict
		}
		return model.Membership{}, fmt.Errorf("insert membership: %w", err)
	}
	return r.GetByUser(ctx, userID)
}

// GetByUser returns the card of userID without its tier.
func (r *MembershipRepo) GetByUser(ctx context.Context, userID uint64) (model.Membership, error) {
	var m model.Membership
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, points, DATE_FORMAT(created_at,'%Y-%m-%d %H:%i:%s') FROM membership_cards WHERE user_id = ?",
		userID).Scan(&m.ID, &m.UserID, &m.Points, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrMembershipNotFound
	}
	return m, err
}

// addPointsTx credits points to a member inside a payment transaction.
// Users without a card are skipped.
func addPointsTx(ctx context.Context, tx *sql.Tx, userID uint64, points int) error {
	if points <= 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, "UPDATE membership_cards SET points = points + ? WHERE user_id = ?", points, userID)
	return err
}
