package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/middleware"
	"github.com/iliyamo/cinemaops/internal/model"
)

// RegisterStaff registers the cluster routes used by managers and
// employees: shift schedules and leave.  The staff websocket feed is
// mounted here too.
func RegisterStaff(e *echo.Echo, h Handlers, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)

	manager := e.Group("/api", auth, middleware.RequireRole(model.RoleManager))
	manager.POST("/schedule/:cluster_id", h.Schedule.Save)
	manager.GET("/leave/cluster/:cluster_id", h.Leave.ListByCluster)
	manager.GET("/leave/stats/:cluster_id", h.Leave.Stats)
	manager.PATCH("/leave/:id/approve", h.Leave.Approve)
	manager.PATCH("/leave/:id/reject", h.Leave.Reject)

	staff := e.Group("/api", auth, middleware.RequireRole(model.RoleManager, model.RoleEmployee))
	staff.GET("/schedule/:cluster_id", h.Schedule.List)
	staff.GET("/schedule/:cluster_id/employee/:employee_id", h.Schedule.ListForEmployee)
	staff.PATCH("/schedule/attendance/:schedule_id", h.Schedule.Attendance)
	staff.GET("/leave/employee/:employee_id/:cluster_id", h.Leave.ListForEmployee)
	staff.GET("/leave/:id", h.Leave.Get)

	employee := e.Group("/api", auth, middleware.RequireRole(model.RoleEmployee))
	employee.POST("/leave", h.Leave.Create)
	employee.PATCH("/leave/:id/cancel", h.Leave.Cancel)

	if h.StaffFeed != nil {
		e.GET("/api/ws/staff", echo.WrapHandler(h.StaffFeed), middleware.WebSocketAuth(jwtSecret),
			middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleEmployee, model.RoleProjectionist))
	}
}
