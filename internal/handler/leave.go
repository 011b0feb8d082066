package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/service"
)

// LeaveHandler serves employee leave requests and the manager's review.
type LeaveHandler struct {
	Leave   *repository.LeaveRepo
	Changes *Changes
	Now     func() time.Time
}

func NewLeaveHandler(lr *repository.LeaveRepo, ch *Changes) *LeaveHandler {
	return &LeaveHandler{Leave: lr, Changes: ch, Now: time.Now}
}

func leaveError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrLeaveNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "leave request not found"})
	case errors.Is(err, repository.ErrNotClusterMember):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrLeaveOverlap),
		errors.Is(err, repository.ErrInsufficientLeave):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidTransition):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "leave request can no longer be changed"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return err
}

type leaveReq struct {
	ClusterID uint64 `json:"cinema_cluster_id" validate:"required"`
	LeaveType string `json:"leave_type" validate:"required,oneof=annual sick personal unpaid"`
	StartDate string `json:"start_date" validate:"required,date"`
	EndDate   string `json:"end_date" validate:"required,date"`
	Reason    string `json:"reason" validate:"max=1000"`
}

// Create handles POST /api/leave for the signed-in employee.
func (h *LeaveHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req leaveReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	start, err := service.ParseDate(req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	end, err := service.ParseDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date is before start_date"})
	}
	days := service.WorkingDays(start, end)
	if days == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "leave range has no working days"})
	}

	l := model.LeaveRequest{
		EmployeeID: uid,
		ClusterID:  req.ClusterID,
		LeaveType:  req.LeaveType,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		TotalDays:  days,
		Reason:     strings.TrimSpace(req.Reason),
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Leave.Create(ctx, &l, start.Year()); err != nil {
		return leaveError(c, err)
	}
	h.Changes.AnnounceStaff(c, "leave_update", echo.Map{"action": "create", "leave": l})
	return c.JSON(http.StatusCreated, l)
}

// ListByCluster handles GET /api/leave/cluster/:cluster_id.
func (h *LeaveHandler) ListByCluster(c echo.Context) error {
	clusterID, err := pathID(c, "cluster_id")
	if err != nil {
		return err
	}
	f := repository.LeaveFilter{
		Status:    c.QueryParam("status"),
		StartDate: c.QueryParam("start_date"),
		EndDate:   c.QueryParam("end_date"),
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 20),
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if v := c.QueryParam("employee_id"); v != "" {
		f.EmployeeID = uint64(queryInt(c, "employee_id", 0))
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	items, total, err := h.Leave.ListByCluster(ctx, clusterID, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"pagination": echo.Map{
			"page":        f.Page,
			"limit":       f.Limit,
			"total":       total,
			"total_pages": service.TotalPages(total, f.Limit),
		},
	})
}

// ListForEmployee handles GET /api/leave/employee/:employee_id/:cluster_id:
// the employee's requests and this year's balance.
func (h *LeaveHandler) ListForEmployee(c echo.Context) error {
	employeeID, err := pathID(c, "employee_id")
	if err != nil {
		return err
	}
	clusterID, err := pathID(c, "cluster_id")
	if err != nil {
		return err
	}
	if getRole(c) == model.RoleEmployee {
		if uid, err := getUserID(c); err != nil || uid != employeeID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	year := h.Now().Year()

	ctx, cancel := dbContext(c)
	defer cancel()
	items, err := h.Leave.ListForEmployee(ctx, employeeID, clusterID, c.QueryParam("status"))
	if err != nil {
		return err
	}
	bal, found, err := h.Leave.Balance(ctx, employeeID, clusterID, year)
	if err != nil {
		return err
	}
	if !found {
		bal = service.DefaultBalance(year)
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": items, "balance": bal})
}

// Get handles GET /api/leave/:id.
func (h *LeaveHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	l, err := h.Leave.Get(ctx, id)
	if err != nil {
		return leaveError(c, err)
	}
	if getRole(c) == model.RoleEmployee {
		if uid, err := getUserID(c); err != nil || uid != l.EmployeeID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	return c.JSON(http.StatusOK, l)
}

// Approve handles PATCH /api/leave/:id/approve.
func (h *LeaveHandler) Approve(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	l, err := h.Leave.Get(ctx, id)
	if err != nil {
		return leaveError(c, err)
	}
	start, err := service.ParseDate(l.StartDate)
	if err != nil {
		return err
	}
	if err := h.Leave.Approve(ctx, id, uid, start.Year()); err != nil {
		return leaveError(c, err)
	}
	l.Status = model.LeaveApproved
	l.ApprovedBy = &uid
	h.Changes.AnnounceStaff(c, "leave_update", echo.Map{"action": "approve", "leave": l})
	return c.JSON(http.StatusOK, l)
}

// Reject handles PATCH /api/leave/:id/reject.
func (h *LeaveHandler) Reject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Reason string `json:"rejection_reason" validate:"max=1000"`
	}
	if err := bindValid(c, &body); err != nil {
		return err
	}
	reason := strings.TrimSpace(body.Reason)

	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Leave.Reject(ctx, id, uid, reason); err != nil {
		return leaveError(c, err)
	}
	h.Changes.AnnounceStaff(c, "leave_update", echo.Map{"action": "reject", "id": id})
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.LeaveRejected, "rejection_reason": reason})
}

// Cancel handles PATCH /api/leave/:id/cancel for the requesting employee.
func (h *LeaveHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Leave.Cancel(ctx, id, uid); err != nil {
		return leaveError(c, err)
	}
	h.Changes.AnnounceStaff(c, "leave_update", echo.Map{"action": "cancel", "id": id})
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.LeaveCancelled})
}

// Stats handles GET /api/leave/stats/:cluster_id.
func (h *LeaveHandler) Stats(c echo.Context) error {
	clusterID, err := pathID(c, "cluster_id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	st, err := h.Leave.Stats(ctx, clusterID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}
