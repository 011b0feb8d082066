package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/service"
)

const maxShowtimeBatch = 50

// ShowtimeHandler lets projectionists schedule, move and remove showtimes.
// Times are wall-clock times in Loc.
type ShowtimeHandler struct {
	Showtimes *repository.ShowtimeRepo
	Changes   *Changes
	Now       func() time.Time
	Loc       *time.Location
}

func NewShowtimeHandler(sr *repository.ShowtimeRepo, ch *Changes) *ShowtimeHandler {
	return &ShowtimeHandler{Showtimes: sr, Changes: ch, Now: time.Now, Loc: time.Local}
}

type showtimeReq struct {
	MovieID   uint64 `json:"movie_id" validate:"required"`
	RoomID    uint64 `json:"room_id" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

type showtimeUpdateReq struct {
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Status    string `json:"status" validate:"omitempty,oneof=Scheduled Ongoing Completed Cancelled"`
}

func showtimeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrShowtimeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
	case errors.Is(err, repository.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrMovieNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case errors.Is(err, repository.ErrShowtimeOverlap):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "showtime already has orders"})
	case errors.Is(err, repository.ErrRoomHasNoSeats),
		errors.Is(err, service.ErrBadShowTime),
		errors.Is(err, service.ErrShowOrder),
		errors.Is(err, service.ErrEditTooLate),
		errors.Is(err, service.ErrShowStarted):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return err
}

// bindShowtimes accepts either one showtime object or an array of them.
func bindShowtimes(c echo.Context) ([]showtimeReq, error) {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return nil, errInvalidBody
	}
	raw = bytes.TrimSpace(raw)
	var reqs []showtimeReq
	if len(raw) > 0 && raw[0] == '[' {
		err = json.Unmarshal(raw, &reqs)
	} else {
		var one showtimeReq
		err = json.Unmarshal(raw, &one)
		reqs = []showtimeReq{one}
	}
	if err != nil {
		return nil, errInvalidBody
	}
	if len(reqs) == 0 || len(reqs) > maxShowtimeBatch {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "between 1 and 50 showtimes per request")
	}
	for i := range reqs {
		if err := c.Validate(&reqs[i]); err != nil {
			return nil, err
		}
	}
	return reqs, nil
}

// Create handles POST /api/showtimes.  The body is one showtime or an
// array; the batch is stored atomically.
func (h *ShowtimeHandler) Create(c echo.Context) error {
	reqs, err := bindShowtimes(c)
	if err != nil {
		return err
	}
	batch := make([]repository.NewShowtime, 0, len(reqs))
	for _, r := range reqs {
		st, en, err := service.ShowWindow(r.StartTime, r.EndTime, h.Loc)
		if err != nil {
			return showtimeError(c, err)
		}
		batch = append(batch, repository.NewShowtime{
			MovieID:   r.MovieID,
			RoomID:    r.RoomID,
			StartTime: st.Format(service.ShowtimeLayout),
			EndTime:   en.Format(service.ShowtimeLayout),
		})
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	ids, err := h.Showtimes.CreateBatch(ctx, batch)
	if err != nil {
		return showtimeError(c, err)
	}
	h.Changes.Announce(c, "showtimes_update", echo.Map{"ids": ids})
	return c.JSON(http.StatusCreated, echo.Map{"ids": ids})
}

// ListByCinema handles GET /api/showtimes/cinema/:cinema_id.
func (h *ShowtimeHandler) ListByCinema(c echo.Context) error {
	id, err := pathID(c, "cinema_id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	items, err := h.Showtimes.ListByCinema(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Update handles PUT /api/showtimes/:id.  Only showtimes starting a day or
// more from now may change.
func (h *ShowtimeHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req showtimeUpdateReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	st, en, err := service.ShowWindow(req.StartTime, req.EndTime, h.Loc)
	if err != nil {
		return showtimeError(c, err)
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	cur, err := h.Showtimes.Get(ctx, id)
	if err != nil {
		return showtimeError(c, err)
	}
	if err := h.editable(cur.StartTime, service.CanEditShowtime); err != nil {
		return showtimeError(c, err)
	}
	status := orDefault(req.Status, cur.Status)
	if err := h.Showtimes.Update(ctx, id, st.Format(service.ShowtimeLayout), en.Format(service.ShowtimeLayout), status); err != nil {
		return showtimeError(c, err)
	}
	h.Changes.Announce(c, "showtimes_update", echo.Map{"ids": []uint64{id}})
	return c.JSON(http.StatusOK, echo.Map{"message": "showtime updated"})
}

// Delete handles DELETE /api/showtimes/:id.  Started showtimes are kept.
func (h *ShowtimeHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	cur, err := h.Showtimes.Get(ctx, id)
	if err != nil {
		return showtimeError(c, err)
	}
	if err := h.editable(cur.StartTime, service.CanDeleteShowtime); err != nil {
		return showtimeError(c, err)
	}
	if err := h.Showtimes.Delete(ctx, id); err != nil {
		return showtimeError(c, err)
	}
	h.Changes.Announce(c, "showtimes_update", echo.Map{"ids": []uint64{id}})
	return c.NoContent(http.StatusNoContent)
}

func (h *ShowtimeHandler) editable(start string, rule func(start, now time.Time) error) error {
	st, err := service.ParseShowTime(start, h.Loc)
	if err != nil {
		return err
	}
	return rule(st, h.Now().In(h.Loc))
}
