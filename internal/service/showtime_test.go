package service

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinemaops/internal/model"
)

func TestSeatLayout(t *testing.T) {
    seats := SeatLayout()
    require.Len(t, seats, 80)
    assert.Equal(t, model.Seat{SeatNumber: "A1", SeatType: model.SeatStandard}, seats[0])
    assert.Equal(t, model.Seat{SeatNumber: "C1", SeatType: model.SeatVIP}, seats[18])
    assert.Equal(t, model.Seat{SeatNumber: "H9", SeatType: model.SeatVIP}, seats[71])
    assert.Equal(t, model.Seat{SeatNumber: "J4", SeatType: model.SeatCouple}, seats[79])
}

func TestRowLabel(t *testing.T) {
    assert.Equal(t, "A", RowLabel(0))
    assert.Equal(t, "Z", RowLabel(25))
    assert.Equal(t, "AA", RowLabel(26))
    assert.Equal(t, "AB", RowLabel(27))
    assert.Equal(t, "", RowLabel(-1))
}

func TestParseShowTime(t *testing.T) {
    want := time.Date(2025, 3, 20, 19, 30, 0, 0, time.UTC)
    for _, in := range []string{"2025-03-20 19:30:00", "2025-03-20T19:30", "2025-03-20 19:30", "2025-03-20T19:30:00Z"} {
        got, err := ParseShowTime(in, time.UTC)
        require.NoError(t, err, in)
        assert.True(t, want.Equal(got), in)
    }
    _, err := ParseShowTime("tomorrow", time.UTC)
    assert.ErrorIs(t, err, ErrBadShowTime)
}

func TestShowWindow(t *testing.T) {
    _, _, err := ShowWindow("2025-03-20T19:30", "2025-03-20T21:30", time.UTC)
    assert.NoError(t, err)
    _, _, err = ShowWindow("2025-03-20T19:30", "2025-03-20T19:30", time.UTC)
    assert.ErrorIs(t, err, ErrShowOrder)
    _, _, err = ShowWindow("2025-03-20T19:30", "late", time.UTC)
    assert.ErrorIs(t, err, ErrBadShowTime)
}

func TestShowtimeEditRules(t *testing.T) {
    now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
    assert.NoError(t, CanEditShowtime(now.Add(24*time.Hour), now))
    assert.ErrorIs(t, CanEditShowtime(now.Add(23*time.Hour), now), ErrEditTooLate)
    assert.NoError(t, CanDeleteShowtime(now.Add(time.Minute), now))
    assert.ErrorIs(t, CanDeleteShowtime(now, now), ErrShowStarted)
}
