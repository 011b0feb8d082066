package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinemaops/internal/model"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	// ErrNotClusterMember is returned when an employee is not linked to the
	// cluster an operation targets.
	ErrNotClusterMember = errors.New("employee does not belong to this cinema cluster")
)

type ScheduleRepo struct {
	db *sql.DB
}

func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

const shiftSelect = `SELECT s.id, s.cinema_cluster_id, ecc.employee_id, COALESCE(u.full_name,''),
	DATE_FORMAT(s.shift_date,'%Y-%m-%d'), s.shift_type, s.status,
	TIME_FORMAT(s.start_time,'%H:%i:%s'), TIME_FORMAT(s.end_time,'%H:%i:%s')
	FROM schedule s
	JOIN employee_cinema_cluster ecc ON ecc.id = s.employee_cinema_cluster_id
	LEFT JOIN users u ON u.id = ecc.employee_id`

func scanShifts(rows *sql.Rows) ([]model.Shift, error) {
	defer rows.Close()
	out := []model.Shift{}
	for rows.Next() {
		var (
			s          model.Shift
			start, end sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.ClusterID, &s.EmployeeID, &s.EmployeeName, &s.ShiftDate,
			&s.ShiftType, &s.Status, &start, &end); err != nil {
			return nil, err
		}
		if start.Valid {
			s.StartTime = &start.String
		}
		if end.Valid {
			s.EndTime = &end.String
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// List returns a cluster's shifts between start and end inclusive.
func (r *ScheduleRepo) List(ctx context.Context, clusterID uint64, start, end string) ([]model.Shift, error) {
	rows, err := r.db.QueryContext(ctx,
		shiftSelect+` WHERE s.cinema_cluster_id = ? AND s.shift_date BETWEEN ? AND ?
		ORDER BY s.shift_date, FIELD(s.shift_type,'morning','afternoon','evening'), s.id`,
		clusterID, start, end)
	if err != nil {
		return nil, err
	}
	return scanShifts(rows)
}

// ListForEmployee narrows List to one employee.
func (r *ScheduleRepo) ListForEmployee(ctx context.Context, clusterID, employeeID uint64, start, end string) ([]model.Shift, error) {
	rows, err := r.db.QueryContext(ctx,
		shiftSelect+` WHERE s.cinema_cluster_id = ? AND ecc.employee_id = ? AND s.shift_date BETWEEN ? AND ?
		ORDER BY s.shift_date, FIELD(s.shift_type,'morning','afternoon','evening'), s.id`,
		clusterID, employeeID, start, end)
	if err != nil {
		return nil, err
	}
	return scanShifts(rows)
}

// Upsert writes all shifts of a cluster in one transaction.  A shift is
// keyed by (employee link, date, shift type); existing rows get their status
// and times replaced.  Any employee outside the cluster aborts the batch, and
// so does a manager who does not run the cluster (ErrForbidden).
func (r *ScheduleRepo) Upsert(ctx context.Context, clusterID, managerID uint64, shifts []model.Shift) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := checkClusterManager(ctx, tx, managerID, clusterID); err != nil {
			return err
		}
		for _, s := range shifts {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO schedule (cinema_cluster_id, employee_cinema_cluster_id, shift_date, shift_type, status, start_time, end_time)
				 SELECT ?, ecc.id, ?, ?, ?, ?, ?
				 FROM employee_cinema_cluster ecc
				 WHERE ecc.employee_id = ? AND ecc.cinema_cluster_id = ?
				 ON DUPLICATE KEY UPDATE status = VALUES(status), start_time = VALUES(start_time),
				 end_time = VALUES(end_time), updated_at = CURRENT_TIMESTAMP`,
				clusterID, s.ShiftDate, s.ShiftType, s.Status, s.StartTime, s.EndTime, s.EmployeeID, clusterID)
			if err != nil {
				return fmt.Errorf("upsert shift: %w", err)
			}
			// 0 rows: no link row matched.  An unchanged duplicate also reports
			// 0, so confirm membership before failing.
			if n, _ := res.RowsAffected(); n == 0 {
				var one int
				err := tx.QueryRowContext(ctx,
					"SELECT 1 FROM employee_cinema_cluster WHERE employee_id = ? AND cinema_cluster_id = ?",
					s.EmployeeID, clusterID).Scan(&one)
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("employee %d: %w", s.EmployeeID, ErrNotClusterMember)
				}
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// UpdateAttendance records the actual start and end time of a shift.
// Employees may only touch their own shifts and managers only shifts of a
// cluster they run; anyone else gets ErrForbidden.
func (r *ScheduleRepo) UpdateAttendance(ctx context.Context, scheduleID, userID uint64, role, start, end string) error {
	var employeeID uint64
	var managerID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT ecc.employee_id, cc.manager_id
		 FROM schedule s
		 JOIN employee_cinema_cluster ecc ON ecc.id = s.employee_cinema_cluster_id
		 JOIN cinema_clusters cc ON cc.id = s.cinema_cluster_id
		 WHERE s.id = ?`, scheduleID).Scan(&employeeID, &managerID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrScheduleNotFound
	}
	if err != nil {
		return err
	}
	switch role {
	case model.RoleEmployee:
		if employeeID != userID {
			return ErrForbidden
		}
	case model.RoleManager:
		if !managerID.Valid || uint64(managerID.Int64) != userID {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, "UPDATE schedule SET start_time = ?, end_time = ? WHERE id = ?", start, end, scheduleID)
	return err
}
