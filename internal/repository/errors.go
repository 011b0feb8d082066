// Package repository holds the MySQL data access layer.  Repositories return
// the sentinel errors below so handlers can pick a status code without
// inspecting driver errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrForbidden is returned when the caller attempts an operation on a
	// resource they do not own.  Handlers translate it to 403.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict signals a uniqueness clash or conflicting state.  Handlers
	// translate it to 409.
	ErrConflict = errors.New("conflict")

	// ErrInvalidTransition is returned when a status change is not allowed
	// from the current status.  Handlers translate it to 400.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// isDuplicate reports whether err is MySQL error 1062 (duplicate key).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}

// withTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// placeholders returns "?,?,...,?" with n marks.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullableDate maps a nil or empty *string to NULL.
func nullableDate(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
