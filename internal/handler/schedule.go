package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/service"
	"github.com/iliyamo/cinemaops/internal/utils"
)

type ScheduleHandler struct {
	Schedule *repository.ScheduleRepo
	Changes  *Changes
	Now      func() time.Time
}

func NewScheduleHandler(sr *repository.ScheduleRepo, ch *Changes) *ScheduleHandler {
	return &ScheduleHandler{Schedule: sr, Changes: ch, Now: time.Now}
}

// dateRange reads ?start and ?end.  Without start the range is the week
// starting today; without end it is the seven days from start.
func (h *ScheduleHandler) dateRange(c echo.Context) (time.Time, time.Time, error) {
	var (
		start, end time.Time
		err        error
	)
	if s := c.QueryParam("start"); s != "" {
		if start, err = service.ParseDate(s); err != nil {
			return start, end, echo.NewHTTPError(http.StatusBadRequest, "start must be YYYY-MM-DD")
		}
	} else {
		now := h.Now()
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if s := c.QueryParam("end"); s != "" {
		if end, err = service.ParseDate(s); err != nil {
			return start, end, echo.NewHTTPError(http.StatusBadRequest, "end must be YYYY-MM-DD")
		}
	} else {
		end = start.AddDate(0, 0, 6)
	}
	if end.Before(start) {
		return start, end, echo.NewHTTPError(http.StatusBadRequest, "end is before start")
	}
	return start, end, nil
}

func (h *ScheduleHandler) respond(c echo.Context, start time.Time, shifts []model.Shift) error {
	if c.QueryParam("view") == "week" {
		return c.JSON(http.StatusOK, echo.Map{
			"start": start.Format(service.DateLayout),
			"days":  service.WeekGrid(start, shifts),
		})
	}
	return c.JSON(http.StatusOK, shifts)
}

// List handles GET /api/schedule/:cluster_id.
func (h *ScheduleHandler) List(c echo.Context) error {
	clusterID, err := pathID(c, "cluster_id")
	if err != nil {
		return err
	}
	start, end, err := h.dateRange(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	shifts, err := h.Schedule.List(ctx, clusterID, start.Format(service.DateLayout), end.Format(service.DateLayout))
	if err != nil {
		return err
	}
	return h.respond(c, start, shifts)
}

// ListForEmployee handles GET /api/schedule/:cluster_id/employee/:employee_id.
// Employees may only read their own shifts.
func (h *ScheduleHandler) ListForEmployee(c echo.Context) error {
	clusterID, err := pathID(c, "cluster_id")
	if err != nil {
		return err
	}
	employeeID, err := pathID(c, "employee_id")
	if err != nil {
		return err
	}
	if getRole(c) == model.RoleEmployee {
		if uid, err := getUserID(c); err != nil || uid != employeeID {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}
	start, end, err := h.dateRange(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	shifts, err := h.Schedule.ListForEmployee(ctx, clusterID, employeeID,
		start.Format(service.DateLayout), end.Format(service.DateLayout))
	if err != nil {
		return err
	}
	return h.respond(c, start, shifts)
}

type shiftReq struct {
	ClusterID  uint64  `json:"cinema_cluster_id"`
	EmployeeID uint64  `json:"employee_id"`
	ShiftDate  string  `json:"shift_date"`
	ShiftType  string  `json:"shift_type"`
	Status     string  `json:"status"`
	StartTime  *string `json:"start_time"`
	EndTime    *string `json:"end_time"`
}

// check validates one entry of a batch; i is its position for the message.
func (r shiftReq) check(i int, clusterID uint64) error {
	switch {
	case r.ClusterID != clusterID:
		return fmt.Errorf("entry %d: cinema_cluster_id must be %d", i, clusterID)
	case r.EmployeeID == 0:
		return fmt.Errorf("entry %d: employee_id is required", i)
	case !utils.IsDate(r.ShiftDate):
		return fmt.Errorf("entry %d: shift_date must be YYYY-MM-DD", i)
	case !service.ValidShiftType(r.ShiftType):
		return fmt.Errorf("entry %d: shift_type must be morning, afternoon or evening", i)
	case !service.ValidShiftStatus(r.Status):
		return fmt.Errorf("entry %d: status must be pending, confirmed or cancelled", i)
	}
	for _, t := range []*string{r.StartTime, r.EndTime} {
		if t != nil && *t != "" && !utils.IsClock(*t) {
			return fmt.Errorf("entry %d: times must be HH:MM or HH:MM:SS", i)
		}
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Save handles POST /api/schedule/:cluster_id.  The whole batch is
// validated before anything is written.
func (h *ScheduleHandler) Save(c echo.Context) error {
	clusterID, err := pathID(c, "cluster_id")
	if err != nil {
		return err
	}
	var req []shiftReq
	if err := c.Bind(&req); err != nil {
		return errInvalidBody
	}
	if len(req) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule must be a non-empty array"})
	}
	shifts := make([]model.Shift, 0, len(req))
	for i, r := range req {
		if err := r.check(i, clusterID); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		shifts = append(shifts, model.Shift{
			ClusterID:  clusterID,
			EmployeeID: r.EmployeeID,
			ShiftDate:  r.ShiftDate,
			ShiftType:  r.ShiftType,
			Status:     r.Status,
			StartTime:  emptyToNil(r.StartTime),
			EndTime:    emptyToNil(r.EndTime),
		})
	}

	managerID, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Schedule.Upsert(ctx, clusterID, managerID, shifts); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotClusterMember):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not manage this cinema cluster"})
		}
		return err
	}
	h.Changes.AnnounceStaff(c, "schedule_update", echo.Map{"cinema_cluster_id": clusterID, "count": len(shifts)})
	return c.JSON(http.StatusOK, echo.Map{"message": "schedule saved", "count": len(shifts)})
}

type attendanceReq struct {
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time" validate:"required,clock"`
}

// Attendance handles PATCH /api/schedule/attendance/:schedule_id.
func (h *ScheduleHandler) Attendance(c echo.Context) error {
	id, err := pathID(c, "schedule_id")
	if err != nil {
		return err
	}
	var req attendanceReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Schedule.UpdateAttendance(ctx, id, userID, getRole(c), req.StartTime, req.EndTime); err != nil {
		switch {
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "start_time": req.StartTime, "end_time": req.EndTime})
}
