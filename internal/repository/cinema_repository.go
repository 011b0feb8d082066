package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinemaops/internal/model"
)

// ErrCinemaNotFound is returned when a cluster cannot be found.
var ErrCinemaNotFound = errors.New("cinema not found")

// ErrNotManager is returned when a manager assignment names a user that is
// missing or does not hold the MANAGER role.
var ErrNotManager = errors.New("user is not a manager")

// CinemaRepo encapsulates the queries on cinema_clusters, their staff
// links and business plans.
type CinemaRepo struct {
	db *sql.DB
}

func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db}
}

const clusterSelect = `SELECT cc.id, cc.name, COALESCE(cc.description,''), cc.manager_id,
	COALESCE(u.full_name,''), COALESCE(u.phone,''), COALESCE(cc.phone,''), COALESCE(cc.email,''),
	COALESCE(cc.province_code,''), COALESCE(cc.district_code,''), COALESCE(cc.address,''), cc.rooms,
	COUNT(ecc.employee_id)
	FROM cinema_clusters cc
	LEFT JOIN users u ON u.id = cc.manager_id
	LEFT JOIN employee_cinema_cluster ecc ON ecc.cinema_cluster_id = cc.id`

func scanCluster(row interface{ Scan(...any) error }) (model.Cluster, error) {
	var (
		c   model.Cluster
		mgr sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Name, &c.Description, &mgr, &c.ManagerName, &c.ManagerPhone, &c.Phone,
		&c.Email, &c.ProvinceCode, &c.DistrictCode, &c.Address, &c.Rooms, &c.StaffCount)
	if mgr.Valid {
		id := uint64(mgr.Int64)
		c.ManagerID = &id
	}
	return c, err
}

// List returns every cluster with its manager contact and staff count.
func (r *CinemaRepo) List(ctx context.Context) ([]model.Cluster, error) {
	rows, err := r.db.QueryContext(ctx, clusterSelect+" GROUP BY cc.id ORDER BY cc.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Cluster{}
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID fetches one cluster.
func (r *CinemaRepo) GetByID(ctx context.Context, id uint64) (model.Cluster, error) {
	c, err := scanCluster(r.db.QueryRowContext(ctx, clusterSelect+" WHERE cc.id = ? GROUP BY cc.id", id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrCinemaNotFound
	}
	return c, err
}

// Exists reports whether a cluster with id exists.
func (r *CinemaRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM cinema_clusters WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// checkManager verifies that id names a MANAGER.
func checkManager(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id uint64) error {
	var role string
	err := q.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ?", id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && role != model.RoleManager) {
		return ErrNotManager
	}
	return err
}

// Create inserts a cluster and fills c.ID.  A non-nil ManagerID must name a
// MANAGER.
func (r *CinemaRepo) Create(ctx context.Context, c *model.Cluster) error {
	if c.ManagerID != nil {
		if err := checkManager(ctx, r.db, *c.ManagerID); err != nil {
			return err
		}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cinema_clusters (name, description, manager_id, phone, email, province_code, district_code, address, rooms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Description, c.ManagerID, c.Phone, c.Email, c.ProvinceCode, c.DistrictCode, c.Address, c.Rooms)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert cinema cluster: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// Update overwrites the editable fields of cluster c.ID.
func (r *CinemaRepo) Update(ctx context.Context, c model.Cluster) error {
	if c.ManagerID != nil {
		if err := checkManager(ctx, r.db, *c.ManagerID); err != nil {
			return err
		}
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE cinema_clusters SET name=?, description=?, manager_id=?, phone=?, email=?,
		 province_code=?, district_code=?, address=?, rooms=? WHERE id=?`,
		c.Name, c.Description, c.ManagerID, c.Phone, c.Email, c.ProvinceCode, c.DistrictCode, c.Address, c.Rooms, c.ID)
	if err != nil {
		return fmt.Errorf("update cinema cluster: %w", err)
	}
	return r.requireRow(ctx, res, c.ID)
}

// AssignManager sets the cluster manager.
func (r *CinemaRepo) AssignManager(ctx context.Context, id, managerID uint64) error {
	if err := checkManager(ctx, r.db, managerID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "UPDATE cinema_clusters SET manager_id=? WHERE id=?", managerID, id)
	if err != nil {
		return err
	}
	return r.requireRow(ctx, res, id)
}

// requireRow turns a zero-row update into ErrCinemaNotFound.  MySQL reports
// zero affected rows for no-op updates too, hence the existence check.
func (r *CinemaRepo) requireRow(ctx context.Context, res sql.Result, id uint64) error {
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	ok, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCinemaNotFound
	}
	return nil
}

// CreatePlan stores a business plan and its movie list in one transaction.
func (r *CinemaRepo) CreatePlan(ctx context.Context, p *model.BusinessPlan) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, "SELECT 1 FROM cinema_clusters WHERE id = ?", p.CinemaID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCinemaNotFound
			}
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO business_plan (cinema_id, description, start_date, end_date, created_by) VALUES (?, ?, ?, ?, ?)",
			p.CinemaID, p.Description, nullableDate(p.StartDate), nullableDate(p.EndDate), p.CreatedBy)
		if err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint64(id)

		args := make([]any, 0, len(p.Movies)*3)
		for _, m := range p.Movies {
			args = append(args, p.ID, m.MovieID, nullString(m.Note))
		}
		q := "INSERT INTO business_plan_movies (plan_id, movie_id, note) VALUES " + tuples(len(p.Movies), 3)
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert plan movies: %w", err)
		}
		return nil
	})
}

// ListPlans returns the plans of a cluster, newest first, with their movies.
func (r *CinemaRepo) ListPlans(ctx context.Context, cinemaID uint64) ([]model.BusinessPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, cinema_id, COALESCE(description,''), DATE_FORMAT(start_date,'%Y-%m-%d'), DATE_FORMAT(end_date,'%Y-%m-%d'),
		 created_by, DATE_FORMAT(created_at,'%Y-%m-%d %H:%i:%s')
		 FROM business_plan WHERE cinema_id = ? ORDER BY created_at DESC, id DESC`, cinemaID)
	if err != nil {
		return nil, err
	}
	plans := []model.BusinessPlan{}
	index := map[uint64]int{}
	for rows.Next() {
		var (
			p          model.BusinessPlan
			start, end sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.CinemaID, &p.Description, &start, &end, &p.CreatedBy, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		if start.Valid {
			p.StartDate = &start.String
		}
		if end.Valid {
			p.EndDate = &end.String
		}
		p.Movies = []model.PlanMovie{}
		index[p.ID] = len(plans)
		plans = append(plans, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return plans, nil
	}

	mrows, err := r.db.QueryContext(ctx,
		`SELECT bpm.plan_id, bpm.movie_id, COALESCE(m.title,''), COALESCE(bpm.note,'')
		 FROM business_plan_movies bpm
		 JOIN business_plan bp ON bp.id = bpm.plan_id
		 LEFT JOIN movies m ON m.id = bpm.movie_id
		 WHERE bp.cinema_id = ? ORDER BY bpm.plan_id, bpm.movie_id`, cinemaID)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()
	for mrows.Next() {
		var (
			planID uint64
			m      model.PlanMovie
		)
		if err := mrows.Scan(&planID, &m.MovieID, &m.Title, &m.Note); err != nil {
			return nil, err
		}
		if i, ok := index[planID]; ok {
			plans[i].Movies = append(plans[i].Movies, m)
		}
	}
	return plans, mrows.Err()
}

// tuples returns n groups of "(?,...,?)" with width marks each.
func tuples(n, width int) string {
	group := "(" + placeholders(width) + ")"
	out := make([]byte, 0, n*(len(group)+1))
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, group...)
	}
	return string(out)
}
