package model

// Seat types, in the order ticket price lists are returned.
const (
    SeatStandard = "Standard"
    SeatVIP      = "VIP"
    SeatCouple   = "Couple"
)

var SeatTypes = []string{SeatStandard, SeatVIP, SeatCouple}

// TicketPrice is one row of a cluster's price list.
type TicketPrice struct {
    SeatType     string  `json:"seat_type"`
    BasePrice    float64 `json:"base_price"`
    WeekendPrice float64 `json:"weekend_price"`
    SpecialPrice float64 `json:"special_price"`
}

// DatedPrice is a price resolved for a concrete date.
type DatedPrice struct {
    SeatType string  `json:"seat_type"`
    Price    float64 `json:"price"`
    Weekend  bool    `json:"is_weekend"`
}
