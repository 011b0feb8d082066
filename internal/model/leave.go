package model

const (
    LeaveAnnual   = "annual"
    LeaveSick     = "sick"
    LeavePersonal = "personal"
    LeaveUnpaid   = "unpaid"

    LeavePending   = "pending"
    LeaveApproved  = "approved"
    LeaveRejected  = "rejected"
    LeaveCancelled = "cancelled"
)

// DefaultAnnualLeave is the yearly allowance a new balance row starts with.
const DefaultAnnualLeave = 12

// LeaveRequest mirrors `leave_request` joined with the employee.
type LeaveRequest struct {
    ID              uint64          `json:"id"`
    EmployeeID      uint64          `json:"employee_id"`
    EmployeeName    string          `json:"employee_name"`
    ClusterID       uint64          `json:"cinema_cluster_id"`
    LeaveType       string          `json:"leave_type"`
    StartDate       string          `json:"start_date"`
    EndDate         string          `json:"end_date"`
    TotalDays       int             `json:"total_days"`
    Reason          string          `json:"reason"`
    Status          string          `json:"status"`
    RejectionReason *string         `json:"rejection_reason"`
    ApprovedBy      *uint64         `json:"approved_by"`
    CreatedAt       string          `json:"created_at"`
    AffectedShifts  []AffectedShift `json:"affected_shifts,omitempty"`
}

// AffectedShift is a schedule row that falls inside a leave request.
type AffectedShift struct {
    ScheduleID        uint64 `json:"schedule_id"`
    ShiftDate         string `json:"shift_date"`
    ShiftType         string `json:"shift_type"`
    ReplacementStatus string `json:"replacement_status"`
}

// LeaveBalance mirrors `leave_balance` for one employee and year.
type LeaveBalance struct {
    Year                 int `json:"year"`
    AnnualLeaveTotal     int `json:"annual_leave_total"`
    AnnualLeaveUsed      int `json:"annual_leave_used"`
    AnnualLeaveRemaining int `json:"annual_leave_remaining"`
    SickLeaveUsed        int `json:"sick_leave_used"`
}

// LeaveStats summarises a cluster's requests.
type LeaveStats struct {
    ByStatus          map[string]int `json:"by_status"`
    ByType            map[string]int `json:"by_type"`
    TotalApprovedDays int            `json:"total_approved_days"`
}
