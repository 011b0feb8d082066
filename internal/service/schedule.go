package service

import (
    "time"

    "github.com/iliyamo/cinemaops/internal/model"
)

// ValidShiftType reports whether t is morning, afternoon or evening.
func ValidShiftType(t string) bool {
    for _, s := range model.ShiftTypes {
        if s == t {
            return true
        }
    }
    return false
}

// ValidShiftStatus reports whether s is pending, confirmed or cancelled.
func ValidShiftStatus(s string) bool {
    switch s {
    case model.ShiftPending, model.ShiftConfirmed, model.ShiftCancelled:
        return true
    }
    return false
}

// WeekGrid lays shifts out as seven days starting at start, each with the
// three shift slots.  Shifts outside the week or with an unknown type are
// dropped.  Every slot is present, possibly empty.
func WeekGrid(start time.Time, shifts []model.Shift) []model.WeekDay {
    days := make([]model.WeekDay, 7)
    index := make(map[string]int, 7)
    for i := range days {
        d := start.AddDate(0, 0, i).Format(DateLayout)
        days[i] = model.WeekDay{Date: d, Shifts: make(map[string][]model.Shift, len(model.ShiftTypes))}
        for _, st := range model.ShiftTypes {
            days[i].Shifts[st] = []model.Shift{}
        }
        index[d] = i
    }
    for _, s := range shifts {
        i, ok := index[s.ShiftDate]
        if !ok || !ValidShiftType(s.ShiftType) {
            continue
        }
        days[i].Shifts[s.ShiftType] = append(days[i].Shifts[s.ShiftType], s)
    }
    return days
}
