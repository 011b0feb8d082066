package service

import (
    "errors"
    "strconv"
    "strings"
    "time"

    "github.com/iliyamo/cinemaops/internal/model"
)

// ShowtimeLayout is how showtimes are stored and returned.
const ShowtimeLayout = "2006-01-02 15:04:05"

var (
    ErrBadShowTime = errors.New("invalid time, expected YYYY-MM-DD HH:MM[:SS]")
    ErrShowOrder   = errors.New("end_time must be after start_time")
    ErrEditTooLate = errors.New("showtimes can only be changed at least one day before they start")
    ErrShowStarted = errors.New("showtime has already started")
)

// Seat rows of the standard room plan.  Rows A-H hold nine seats, I and J
// hold four couple seats.
var layoutRows = []struct {
    seats int
    kind  string
}{
    {9, model.SeatStandard}, {9, model.SeatStandard},
    {9, model.SeatVIP}, {9, model.SeatVIP}, {9, model.SeatVIP},
    {9, model.SeatVIP}, {9, model.SeatVIP}, {9, model.SeatVIP},
    {4, model.SeatCouple}, {4, model.SeatCouple},
}

// SeatLayout returns the seats of a newly created room, row by row.
func SeatLayout() []model.Seat {
    var out []model.Seat
    for i, r := range layoutRows {
        label := RowLabel(i)
        for n := 1; n <= r.seats; n++ {
            out = append(out, model.Seat{SeatNumber: label + strconv.Itoa(n), SeatType: r.kind})
        }
    }
    return out
}

// RowLabel converts a zero-based row index to A..Z, AA, AB and so on.
func RowLabel(i int) string {
    if i < 0 {
        return ""
    }
    var res []rune
    for {
        res = append(res, rune('A'+i%26))
        i = i/26 - 1
        if i < 0 {
            break
        }
    }
    for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
        res[j], res[k] = res[k], res[j]
    }
    return string(res)
}

// ParseShowTime reads the datetime-local form the SPA sends
// ("2006-01-02T15:04"), the stored form and RFC 3339.  Wall-clock inputs are
// interpreted in loc; the result is normalised to loc.
func ParseShowTime(s string, loc *time.Location) (time.Time, error) {
    s = strings.TrimSpace(s)
    for _, layout := range []string{ShowtimeLayout, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04"} {
        if t, err := time.ParseInLocation(layout, s, loc); err == nil {
            return t, nil
        }
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t.In(loc), nil
    }
    return time.Time{}, ErrBadShowTime
}

// ShowWindow parses and orders a start/end pair.
func ShowWindow(start, end string, loc *time.Location) (time.Time, time.Time, error) {
    st, err := ParseShowTime(start, loc)
    if err != nil {
        return st, st, err
    }
    en, err := ParseShowTime(end, loc)
    if err != nil {
        return st, en, err
    }
    if !en.After(st) {
        return st, en, ErrShowOrder
    }
    return st, en, nil
}

// CanEditShowtime allows changes only while the start is a day or more away.
func CanEditShowtime(start, now time.Time) error {
    if start.Sub(now) < 24*time.Hour {
        return ErrEditTooLate
    }
    return nil
}

// CanDeleteShowtime allows deletion only before the showtime starts.
func CanDeleteShowtime(start, now time.Time) error {
    if !start.After(now) {
        return ErrShowStarted
    }
    return nil
}
