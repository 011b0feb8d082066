package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/service"
)

// RoomHandler serves the screening rooms of each cluster.
type RoomHandler struct {
	Rooms   *repository.RoomRepo
	Changes *Changes
}

func NewRoomHandler(rr *repository.RoomRepo, ch *Changes) *RoomHandler {
	return &RoomHandler{Rooms: rr, Changes: ch}
}

type roomReq struct {
	CinemaID uint64 `json:"cinema_id"`
	Name     string `json:"name" validate:"required,max=100"`
	Type     string `json:"type" validate:"omitempty,oneof=2D 3D IMAX 4DX"`
	Status   string `json:"status" validate:"omitempty,oneof=AVAILABLE MAINTENANCE CLOSED"`
}

func roomError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrCinemaNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
	case errors.Is(err, repository.ErrRoomExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room has showtimes"})
	}
	return err
}

// ListByCinema handles GET /api/rooms/cinema/:cinema_id.
func (h *RoomHandler) ListByCinema(c echo.Context) error {
	id, err := pathID(c, "cinema_id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	rooms, err := h.Rooms.ListByCinema(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rooms)
}

// Get handles GET /api/rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	rm, err := h.Rooms.Get(ctx, id)
	if err != nil {
		return roomError(c, err)
	}
	return c.JSON(http.StatusOK, rm)
}

// Create handles POST /api/rooms.  The room gets the standard seat plan.
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if req.CinemaID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cinema_id is required"})
	}
	rm := model.Room{
		CinemaID: req.CinemaID,
		Name:     strings.TrimSpace(req.Name),
		Type:     orDefault(req.Type, "2D"),
		Status:   orDefault(req.Status, model.RoomAvailable),
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Rooms.Create(ctx, &rm, service.SeatLayout()); err != nil {
		return roomError(c, err)
	}
	h.Changes.Announce(c, "", nil, cinemasRoute)
	return c.JSON(http.StatusCreated, rm)
}

// Update handles PUT /api/rooms/:id.
func (h *RoomHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req roomReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	cur, err := h.Rooms.Get(ctx, id)
	if err != nil {
		return roomError(c, err)
	}
	cur.Name = strings.TrimSpace(req.Name)
	cur.Type = orDefault(req.Type, cur.Type)
	cur.Status = orDefault(req.Status, cur.Status)
	if err := h.Rooms.Update(ctx, cur); err != nil {
		return roomError(c, err)
	}
	return c.JSON(http.StatusOK, cur)
}

// Delete handles DELETE /api/rooms/:id.
func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Rooms.Delete(ctx, id); err != nil {
		return roomError(c, err)
	}
	h.Changes.Announce(c, "", nil, cinemasRoute)
	return c.NoContent(http.StatusNoContent)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
