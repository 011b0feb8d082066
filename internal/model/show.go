package model

// Showtime statuses.  Only Scheduled and Ongoing showtimes are listed to
// customers.
const (
    ShowScheduled = "Scheduled"
    ShowOngoing   = "Ongoing"
    ShowCompleted = "Completed"
    ShowCancelled = "Cancelled"
)

// Showtime is a scheduled screening.  CinemaID is resolved through the
// showtime's room.  StartTime is "YYYY-MM-DD HH:MM:SS".
type Showtime struct {
    ID         uint64 `json:"id"`
    MovieID    uint64 `json:"movie_id"`
    MovieTitle string `json:"movie_title"`
    RoomID     uint64 `json:"room_id"`
    CinemaID   uint64 `json:"cinema_id"`
    CinemaName string `json:"cinema_name"`
    StartTime  string `json:"start_time"`
}

// ShowtimeSlot is a showtime as the projection schedule lists it.
type ShowtimeSlot struct {
    Showtime
    RoomName string `json:"room_name"`
    EndTime  string `json:"end_time"`
    Status   string `json:"status"`
}
