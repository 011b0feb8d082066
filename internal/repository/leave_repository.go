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
	ErrLeaveNotFound = errors.New("leave request not found")
	// ErrLeaveOverlap is returned when a new request overlaps an open one.
	ErrLeaveOverlap = errors.New("leave request overlaps an existing request")
	// ErrInsufficientLeave is returned when annual leave exceeds the balance.
	ErrInsufficientLeave = errors.New("insufficient annual leave balance")
)

type LeaveRepo struct {
	db *sql.DB
}

func NewLeaveRepo(db *sql.DB) *LeaveRepo { return &LeaveRepo{db: db} }

// LeaveFilter narrows a cluster listing.  Zero values are ignored.
type LeaveFilter struct {
	Status     string
	EmployeeID uint64
	StartDate  string
	EndDate    string
	Page       int
	Limit      int
}

const leaveSelect = `SELECT lr.id, ecc.employee_id, COALESCE(u.full_name,''), lr.cinema_cluster_id, lr.leave_type,
	DATE_FORMAT(lr.start_date,'%Y-%m-%d'), DATE_FORMAT(lr.end_date,'%Y-%m-%d'), lr.total_days,
	COALESCE(lr.reason,''), lr.status, lr.rejection_reason, lr.approver_id,
	DATE_FORMAT(lr.created_at,'%Y-%m-%d %H:%i:%s')
	FROM leave_request lr
	JOIN employee_cinema_cluster ecc ON ecc.id = lr.employee_cinema_cluster_id
	LEFT JOIN users u ON u.id = ecc.employee_id`

func scanLeave(row interface{ Scan(...any) error }) (model.LeaveRequest, error) {
	var (
		l        model.LeaveRequest
		reason   sql.NullString
		approver sql.NullInt64
	)
	err := row.Scan(&l.ID, &l.EmployeeID, &l.EmployeeName, &l.ClusterID, &l.LeaveType, &l.StartDate, &l.EndDate,
		&l.TotalDays, &l.Reason, &l.Status, &reason, &approver, &l.CreatedAt)
	if reason.Valid {
		l.RejectionReason = &reason.String
	}
	if approver.Valid {
		id := uint64(approver.Int64)
		l.ApprovedBy = &id
	}
	return l, err
}

func scanLeaves(rows *sql.Rows) ([]model.LeaveRequest, error) {
	defer rows.Close()
	out := []model.LeaveRequest{}
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Create files a pending request for employeeID in l.ClusterID.  l.TotalDays
// must already hold the working-day count.  The annual balance row is
// created on first use.  Pending and confirmed shifts inside the range are
// recorded as needing a replacement.
func (r *LeaveRepo) Create(ctx context.Context, l *model.LeaveRequest, year int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var linkID uint64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM employee_cinema_cluster WHERE employee_id = ? AND cinema_cluster_id = ?",
			l.EmployeeID, l.ClusterID).Scan(&linkID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotClusterMember
		}
		if err != nil {
			return err
		}

		var remaining int
		err = tx.QueryRowContext(ctx,
			"SELECT annual_leave_remaining FROM leave_balance WHERE employee_cinema_cluster_id = ? AND year = ? FOR UPDATE",
			linkID, year).Scan(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			remaining = model.DefaultAnnualLeave
			_, err = tx.ExecContext(ctx,
				`INSERT INTO leave_balance (employee_cinema_cluster_id, year, annual_leave_total, annual_leave_used,
				 annual_leave_remaining, sick_leave_used) VALUES (?, ?, ?, 0, ?, 0)`,
				linkID, year, model.DefaultAnnualLeave, model.DefaultAnnualLeave)
		}
		if err != nil {
			return fmt.Errorf("leave balance: %w", err)
		}
		if l.LeaveType == model.LeaveAnnual && remaining < l.TotalDays {
			return ErrInsufficientLeave
		}

		var overlap int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM leave_request WHERE employee_cinema_cluster_id = ?
			 AND status NOT IN ('rejected','cancelled') AND start_date <= ? AND end_date >= ?`,
			linkID, l.EndDate, l.StartDate).Scan(&overlap)
		if err != nil {
			return err
		}
		if overlap > 0 {
			return ErrLeaveOverlap
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO leave_request (employee_cinema_cluster_id, cinema_cluster_id, leave_type, start_date, end_date,
			 total_days, reason, status) VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')`,
			linkID, l.ClusterID, l.LeaveType, l.StartDate, l.EndDate, l.TotalDays, nullString(l.Reason))
		if err != nil {
			return fmt.Errorf("insert leave request: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		l.ID = uint64(id)
		l.Status = model.LeavePending

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO leave_affected_schedule (leave_request_id, schedule_id, replacement_status)
			 SELECT ?, id, 'needed' FROM schedule
			 WHERE employee_cinema_cluster_id = ? AND shift_date BETWEEN ? AND ? AND status IN ('pending','confirmed')`,
			l.ID, linkID, l.StartDate, l.EndDate); err != nil {
			return fmt.Errorf("record affected shifts: %w", err)
		}
		return nil
	})
}

// ListByCluster returns one page of a cluster's requests, newest first, and
// the unpaged total.
func (r *LeaveRepo) ListByCluster(ctx context.Context, clusterID uint64, f LeaveFilter) ([]model.LeaveRequest, int, error) {
	conds := []string{"lr.cinema_cluster_id = ?"}
	args := []any{clusterID}
	if f.Status != "" {
		conds = append(conds, "lr.status = ?")
		args = append(args, f.Status)
	}
	if f.EmployeeID != 0 {
		conds = append(conds, "ecc.employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if f.StartDate != "" {
		conds = append(conds, "lr.start_date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, "lr.end_date <= ?")
		args = append(args, f.EndDate)
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leave_request lr
		 JOIN employee_cinema_cluster ecc ON ecc.id = lr.employee_cinema_cluster_id`+where,
		args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		leaveSelect+where+" ORDER BY lr.created_at DESC, lr.id DESC LIMIT ? OFFSET ?",
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	out, err := scanLeaves(rows)
	return out, total, err
}

// ListForEmployee returns an employee's requests in one cluster, optionally
// filtered by status.
func (r *LeaveRepo) ListForEmployee(ctx context.Context, employeeID, clusterID uint64, status string) ([]model.LeaveRequest, error) {
	q := leaveSelect + " WHERE ecc.employee_id = ? AND lr.cinema_cluster_id = ?"
	args := []any{employeeID, clusterID}
	if status != "" {
		q += " AND lr.status = ?"
		args = append(args, status)
	}
	rows, err := r.db.QueryContext(ctx, q+" ORDER BY lr.created_at DESC, lr.id DESC", args...)
	if err != nil {
		return nil, err
	}
	return scanLeaves(rows)
}

// Balance returns the employee's balance for year.  found is false when no
// row exists yet.
func (r *LeaveRepo) Balance(ctx context.Context, employeeID, clusterID uint64, year int) (model.LeaveBalance, bool, error) {
	b := model.LeaveBalance{Year: year}
	err := r.db.QueryRowContext(ctx,
		`SELECT lb.annual_leave_total, lb.annual_leave_used, lb.annual_leave_remaining, lb.sick_leave_used
		 FROM leave_balance lb
		 JOIN employee_cinema_cluster ecc ON ecc.id = lb.employee_cinema_cluster_id
		 WHERE ecc.employee_id = ? AND ecc.cinema_cluster_id = ? AND lb.year = ?`,
		employeeID, clusterID, year).Scan(&b.AnnualLeaveTotal, &b.AnnualLeaveUsed, &b.AnnualLeaveRemaining, &b.SickLeaveUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return b, false, nil
	}
	return b, err == nil, err
}

// Get returns a request with its affected shifts.
func (r *LeaveRepo) Get(ctx context.Context, id uint64) (model.LeaveRequest, error) {
	l, err := scanLeave(r.db.QueryRowContext(ctx, leaveSelect+" WHERE lr.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return l, ErrLeaveNotFound
	}
	if err != nil {
		return l, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT las.schedule_id, DATE_FORMAT(s.shift_date,'%Y-%m-%d'), s.shift_type, las.replacement_status
		 FROM leave_affected_schedule las
		 JOIN schedule s ON s.id = las.schedule_id
		 WHERE las.leave_request_id = ?
		 ORDER BY s.shift_date, FIELD(s.shift_type,'morning','afternoon','evening')`, id)
	if err != nil {
		return l, err
	}
	defer rows.Close()
	l.AffectedShifts = []model.AffectedShift{}
	for rows.Next() {
		var a model.AffectedShift
		if err := rows.Scan(&a.ScheduleID, &a.ShiftDate, &a.ShiftType, &a.ReplacementStatus); err != nil {
			return l, err
		}
		l.AffectedShifts = append(l.AffectedShifts, a)
	}
	return l, rows.Err()
}

// lockLeave loads the fields a transition needs and locks the row.
func lockLeave(ctx context.Context, tx *sql.Tx, id uint64) (status, leaveType string, days int, linkID, clusterID, employeeID uint64, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT lr.status, lr.leave_type, lr.total_days, lr.employee_cinema_cluster_id, lr.cinema_cluster_id, ecc.employee_id
		 FROM leave_request lr
		 JOIN employee_cinema_cluster ecc ON ecc.id = lr.employee_cinema_cluster_id
		 WHERE lr.id = ? FOR UPDATE`, id).Scan(&status, &leaveType, &days, &linkID, &clusterID, &employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrLeaveNotFound
	}
	return
}

// checkClusterManager fails with ErrForbidden unless managerID manages
// clusterID.
func checkClusterManager(ctx context.Context, tx *sql.Tx, managerID, clusterID uint64) error {
	var one int
	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM cinema_clusters WHERE id = ? AND manager_id = ?", clusterID, managerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrForbidden
	}
	return err
}

// Approve moves a pending request to approved.  Annual leave is deducted
// from the balance of the request's year and the affected shifts are
// cancelled.
func (r *LeaveRepo) Approve(ctx context.Context, id, managerID uint64, year int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, leaveType, days, linkID, clusterID, _, err := lockLeave(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkClusterManager(ctx, tx, managerID, clusterID); err != nil {
			return err
		}
		if status != model.LeavePending {
			return ErrInvalidTransition
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE leave_request SET status = 'approved', approver_id = ?, approved_at = CURRENT_TIMESTAMP WHERE id = ?",
			managerID, id); err != nil {
			return err
		}
		switch leaveType {
		case model.LeaveAnnual:
			_, err = tx.ExecContext(ctx,
				`UPDATE leave_balance SET annual_leave_used = annual_leave_used + ?,
				 annual_leave_remaining = annual_leave_remaining - ?
				 WHERE employee_cinema_cluster_id = ? AND year = ?`, days, days, linkID, year)
		case model.LeaveSick:
			_, err = tx.ExecContext(ctx,
				"UPDATE leave_balance SET sick_leave_used = sick_leave_used + ? WHERE employee_cinema_cluster_id = ? AND year = ?",
				days, linkID, year)
		}
		if err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE schedule s JOIN leave_affected_schedule las ON las.schedule_id = s.id
			 SET s.status = 'cancelled' WHERE las.leave_request_id = ?`, id); err != nil {
			return fmt.Errorf("cancel affected shifts: %w", err)
		}
		return nil
	})
}

// Reject moves a pending request to rejected with reason.
func (r *LeaveRepo) Reject(ctx context.Context, id, managerID uint64, reason string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, _, _, _, clusterID, _, err := lockLeave(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkClusterManager(ctx, tx, managerID, clusterID); err != nil {
			return err
		}
		if status != model.LeavePending {
			return ErrInvalidTransition
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE leave_request SET status = 'rejected', rejection_reason = ?, approver_id = ?,
			 approved_at = CURRENT_TIMESTAMP WHERE id = ?`, nullString(reason), managerID, id)
		return err
	})
}

// Cancel withdraws the employee's own request and drops its affected-shift
// records.
func (r *LeaveRepo) Cancel(ctx context.Context, id, employeeID uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		status, _, _, _, _, owner, err := lockLeave(ctx, tx, id)
		if err != nil {
			return err
		}
		if owner != employeeID {
			return ErrForbidden
		}
		if status == model.LeaveApproved || status == model.LeaveCancelled {
			return ErrInvalidTransition
		}
		if _, err := tx.ExecContext(ctx, "UPDATE leave_request SET status = 'cancelled' WHERE id = ?", id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM leave_affected_schedule WHERE leave_request_id = ?", id)
		return err
	})
}

// Stats aggregates a cluster's requests.
func (r *LeaveRepo) Stats(ctx context.Context, clusterID uint64) (model.LeaveStats, error) {
	st := model.LeaveStats{ByStatus: map[string]int{}, ByType: map[string]int{}}
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, leave_type, COUNT(*), COALESCE(SUM(total_days),0)
		 FROM leave_request WHERE cinema_cluster_id = ? GROUP BY status, leave_type`, clusterID)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status, typ string
			n, days     int
		)
		if err := rows.Scan(&status, &typ, &n, &days); err != nil {
			return st, err
		}
		st.ByStatus[status] += n
		st.ByType[typ] += n
		if status == model.LeaveApproved {
			st.TotalApprovedDays += days
		}
	}
	return st, rows.Err()
}
