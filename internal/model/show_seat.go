package model

// Show seat statuses.  A seat is held against a pending order and becomes
// booked when the payment webhook confirms it.
const (
    SeatAvailable = "available"
    SeatHeld      = "held"
    SeatBooked    = "booked"
)

// ShowSeat links a physical seat to one showtime.
type ShowSeat struct {
    ID            uint64  `json:"id"`
    ShowtimeID    uint64  `json:"showtime_id"`
    SeatID        uint64  `json:"seat_id"`
    SeatNumber    string  `json:"seat_number"`
    SeatType      string  `json:"seat_type"`
    Status        string  `json:"status"`
    ReservationID *uint64 `json:"reservation_id"`
}
