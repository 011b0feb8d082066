package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/service"
)

type TicketPriceHandler struct {
	Prices  *repository.TicketPriceRepo
	Cinemas *repository.CinemaRepo
	Changes *Changes
}

func NewTicketPriceHandler(pr *repository.TicketPriceRepo, cr *repository.CinemaRepo, ch *Changes) *TicketPriceHandler {
	return &TicketPriceHandler{Prices: pr, Cinemas: cr, Changes: ch}
}

// cinema parses :cinema_id and checks that the cluster exists.
func (h *TicketPriceHandler) cinema(c echo.Context) (uint64, error) {
	id, err := pathID(c, "cinema_id")
	if err != nil {
		return 0, err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	ok, err := h.Cinemas.Exists(ctx, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, echo.NewHTTPError(http.StatusNotFound, "cinema not found")
	}
	return id, nil
}

// List handles GET /api/ticketprice/:cinema_id.  The response always has
// the Standard, VIP and Couple rows in that order.
func (h *TicketPriceHandler) List(c echo.Context) error {
	id, err := h.cinema(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	rows, err := h.Prices.List(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"cinema_id": id, "prices": service.PadPrices(rows)})
}

type priceReq struct {
	Prices []model.TicketPrice `json:"prices" validate:"required,min=1"`
}

// Update handles PUT /api/ticketprice/:cinema_id.
func (h *TicketPriceHandler) Update(c echo.Context) error {
	id, err := h.cinema(c)
	if err != nil {
		return err
	}
	var req priceReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	for _, p := range req.Prices {
		if !service.ValidSeatType(p.SeatType) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_type must be Standard, VIP or Couple"})
		}
		if p.BasePrice < 0 || p.WeekendPrice < 0 || p.SpecialPrice < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "prices cannot be negative"})
		}
	}
	var managerID uint64
	if getRole(c) != model.RoleAdmin {
		if managerID, err = getUserID(c); err != nil {
			return err
		}
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Prices.Upsert(ctx, id, managerID, req.Prices); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "you do not manage this cinema"})
		}
		return err
	}
	rows, err := h.Prices.List(ctx, id)
	if err != nil {
		return err
	}
	out := echo.Map{"cinema_id": id, "prices": service.PadPrices(rows)}
	h.Changes.Announce(c, "ticketprice_update", out)
	return c.JSON(http.StatusOK, out)
}

// ForDate handles GET /api/ticketprice/:cinema_id/:date and resolves the
// weekday or weekend price of every seat type.  Missing seat types come
// back priced 0.
func (h *TicketPriceHandler) ForDate(c echo.Context) error {
	day, err := service.ParseDate(c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	id, err := h.cinema(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	n, err := h.Prices.CountShowtimes(ctx, id, day.Format(service.DateLayout))
	if err != nil {
		return err
	}
	if n == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no showtimes on this date"})
	}
	rows, err := h.Prices.List(ctx, id)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no ticket prices for this cinema"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"cinema_id": id,
		"date":      day.Format(service.DateLayout),
		"prices":    service.PricesForDate(service.PadPrices(rows), day),
	})
}
