package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/utils"
)

var (
	ErrEmailExists = errors.New("email already exists")
	ErrNotCustomer = errors.New("account is not a customer account")
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,full_name,COALESCE(phone,''),password_hash,role,is_active,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user with a bcrypt hash of password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, fullName, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, full_name, password_hash, role) VALUES (?,?,?,?)",
		email, strings.TrimSpace(fullName), hash, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.  sql.ErrNoRows is returned
// as is so login can map it to 401.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpsertOAuth returns the CUSTOMER registered under email, creating one with
// the given name and password hash when none exists.  Staff accounts are
// never handed out this way: ErrNotCustomer is returned and nothing is
// written.
func (r *UserRepo) UpsertOAuth(ctx context.Context, email, fullName, passwordHash string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := r.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return customerOnly(u)
	case !errors.Is(err, sql.ErrNoRows):
		return model.User{}, err
	}
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO users (email, full_name, password_hash, role) VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE id = id`,
		email, fullName, passwordHash, model.RoleCustomer)
	if err != nil {
		return model.User{}, fmt.Errorf("upsert oauth user: %w", err)
	}
	u, err = r.GetByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	return customerOnly(u)
}

func customerOnly(u model.User) (model.User, error) {
	if u.Role != model.RoleCustomer {
		return model.User{}, ErrNotCustomer
	}
	return u, nil
}

// ListByRole returns users holding role ordered by name.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role=? ORDER BY full_name, id", role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
