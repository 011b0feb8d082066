// Package service holds the business rules that do not need a database:
// pricing, promotion state, leave arithmetic, the weekly schedule grid and
// the SePay payment helpers.  Handlers and repositories call into it so the
// rules can be tested without I/O.
package service

import (
    "errors"
    "time"

    "github.com/iliyamo/cinemaops/internal/model"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var ErrBadDate = errors.New("invalid date, expected YYYY-MM-DD")

// ParseDate parses a YYYY-MM-DD string as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
    t, err := time.ParseInLocation(DateLayout, s, time.UTC)
    if err != nil {
        return time.Time{}, ErrBadDate
    }
    return t, nil
}

// IsWeekend reports whether d falls on a Saturday or Sunday.
func IsWeekend(d time.Time) bool {
    wd := d.Weekday()
    return wd == time.Saturday || wd == time.Sunday
}

// EffectivePrice picks the weekend price on Saturday and Sunday, falling back
// to the base price when no weekend price is set.
func EffectivePrice(p model.TicketPrice, d time.Time) float64 {
    if IsWeekend(d) && p.WeekendPrice > 0 {
        return p.WeekendPrice
    }
    return p.BasePrice
}

// PadPrices returns exactly one row per seat type in Standard, VIP, Couple
// order.  Missing rows are zero priced.
func PadPrices(rows []model.TicketPrice) []model.TicketPrice {
    byType := make(map[string]model.TicketPrice, len(rows))
    for _, r := range rows {
        byType[r.SeatType] = r
    }
    out := make([]model.TicketPrice, 0, len(model.SeatTypes))
    for _, st := range model.SeatTypes {
        if r, ok := byType[st]; ok {
            out = append(out, r)
            continue
        }
        out = append(out, model.TicketPrice{SeatType: st})
    }
    return out
}

// PricesForDate resolves every row of a price list for d.
func PricesForDate(rows []model.TicketPrice, d time.Time) []model.DatedPrice {
    weekend := IsWeekend(d)
    out := make([]model.DatedPrice, 0, len(rows))
    for _, r := range rows {
        out = append(out, model.DatedPrice{SeatType: r.SeatType, Price: EffectivePrice(r, d), Weekend: weekend})
    }
    return out
}

// ValidSeatType reports whether st is a known seat type.
func ValidSeatType(st string) bool {
    for _, s := range model.SeatTypes {
        if s == st {
            return true
        }
    }
    return false
}
