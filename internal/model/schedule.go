package model

// Shift types and statuses for `schedule` rows.
const (
    ShiftMorning   = "morning"
    ShiftAfternoon = "afternoon"
    ShiftEvening   = "evening"

    ShiftPending   = "pending"
    ShiftConfirmed = "confirmed"
    ShiftCancelled = "cancelled"
)

var ShiftTypes = []string{ShiftMorning, ShiftAfternoon, ShiftEvening}

// Shift is one employee assignment in the weekly grid.  Dates are
// YYYY-MM-DD and times HH:MM:SS; StartTime and EndTime double as the
// attendance record.
type Shift struct {
    ID              uint64  `json:"id"`
    ClusterID       uint64  `json:"cinema_cluster_id"`
    EmployeeID      uint64  `json:"employee_id"`
    EmployeeName    string  `json:"employee_name"`
    ShiftDate       string  `json:"shift_date"`
    ShiftType       string  `json:"shift_type"`
    Status          string  `json:"status"`
    StartTime       *string `json:"start_time"`
    EndTime         *string `json:"end_time"`
}

// WeekDay is one column of the 7-day × 3-shift grid.
type WeekDay struct {
    Date   string             `json:"date"`
    Shifts map[string][]Shift `json:"shifts"`
}
