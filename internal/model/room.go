package model

// Room statuses.
const (
    RoomAvailable   = "AVAILABLE"
    RoomMaintenance = "MAINTENANCE"
    RoomClosed      = "CLOSED"
)

// Room is a screening room of a cinema cluster.  Capacity is the number of
// seats generated for it.
type Room struct {
    ID        uint64 `json:"id"`
    CinemaID  uint64 `json:"cinema_id"`
    Name      string `json:"name"`
    Capacity  int    `json:"capacity"`
    Type      string `json:"type"`
    Status    string `json:"status"`
    CreatedAt string `json:"created_at"`
}

// Seat is a physical seat of a room.  Showtimes copy them into show_seats.
type Seat struct {
    SeatNumber string `json:"seat_number"`
    SeatType   string `json:"seat_type"`
}
