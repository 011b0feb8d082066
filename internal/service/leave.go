package service

import (
    "time"

    "github.com/iliyamo/cinemaops/internal/model"
)

// WorkingDays counts Monday-to-Friday days in [start, end].
func WorkingDays(start, end time.Time) int {
    n := 0
    for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
        if !IsWeekend(d) {
            n++
        }
    }
    return n
}

// ValidLeaveType reports whether t is a supported leave type.
func ValidLeaveType(t string) bool {
    switch t {
    case model.LeaveAnnual, model.LeaveSick, model.LeavePersonal, model.LeaveUnpaid:
        return true
    }
    return false
}

// CanDecide reports whether a manager may approve or reject a request in
// status s.
func CanDecide(s string) bool { return s == model.LeavePending }

// CanCancel reports whether the employee may still withdraw a request.
func CanCancel(s string) bool { return s != model.LeaveApproved && s != model.LeaveCancelled }

// DefaultBalance is what an employee without a balance row is shown.
func DefaultBalance(year int) model.LeaveBalance {
    return model.LeaveBalance{
        Year:                 year,
        AnnualLeaveTotal:     model.DefaultAnnualLeave,
        AnnualLeaveRemaining: model.DefaultAnnualLeave,
    }
}

// TotalPages returns the page count for total rows at limit per page.
func TotalPages(total, limit int) int {
    if limit <= 0 {
        return 0
    }
    return (total + limit - 1) / limit
}
