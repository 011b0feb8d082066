package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/service"
)

const promotionsRoute = "/api/promotions"

type PromotionHandler struct {
	Promotions *repository.PromotionRepo
	Changes    *Changes
	Now        func() time.Time
}

func NewPromotionHandler(pr *repository.PromotionRepo, ch *Changes) *PromotionHandler {
	return &PromotionHandler{Promotions: pr, Changes: ch, Now: time.Now}
}

type promotionReq struct {
	Code          string   `json:"code" validate:"required,max=50"`
	Name          string   `json:"name" validate:"required,max=255"`
	Description   string   `json:"description"`
	DiscountType  string   `json:"discount_type" validate:"required,oneof=percent fixed"`
	DiscountValue float64  `json:"discount_value" validate:"gt=0"`
	MinOrder      float64  `json:"min_order" validate:"gte=0"`
	MaxDiscount   *float64 `json:"max_discount" validate:"omitempty,gte=0"`
	StartDate     string   `json:"start_date" validate:"required,date"`
	EndDate       string   `json:"end_date" validate:"required,date"`
	Quantity      int      `json:"quantity" validate:"gte=0"`
	Status        string   `json:"status" validate:"omitempty,oneof=active upcoming expired inactive"`
}

// promotion validates the request and derives the status when it was not
// supplied.
func (h *PromotionHandler) promotion(c echo.Context, req promotionReq, id uint64) (model.Promotion, error) {
	if req.EndDate < req.StartDate {
		return model.Promotion{}, echo.NewHTTPError(http.StatusBadRequest, "end_date is before start_date")
	}
	if req.DiscountType == model.DiscountPercent && req.DiscountValue > 100 {
		return model.Promotion{}, echo.NewHTTPError(http.StatusBadRequest, "percent discount cannot exceed 100")
	}
	status := req.Status
	if status == "" {
		s, err := service.PromotionStatus(req.StartDate, req.EndDate, h.Now())
		if err != nil {
			return model.Promotion{}, echo.NewHTTPError(http.StatusBadRequest, "invalid dates")
		}
		status = s
	}
	return model.Promotion{
		ID:            id,
		Code:          strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MinOrder:      req.MinOrder,
		MaxDiscount:   req.MaxDiscount,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Quantity:      req.Quantity,
		Status:        status,
	}, nil
}

func promotionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrPromotionNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "promotion not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "promotion code already exists"})
	}
	return err
}

// List handles GET /api/promotions.  Date-driven statuses are brought up to
// date before reading.
func (h *PromotionHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Promotions.RefreshStatuses(ctx); err != nil {
		return err
	}
	items, err := h.Promotions.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Active handles GET /api/promotions/active.
func (h *PromotionHandler) Active(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Promotions.RefreshStatuses(ctx); err != nil {
		return err
	}
	items, err := h.Promotions.ListActive(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Statistics handles GET /api/promotions/statistics.
func (h *PromotionHandler) Statistics(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	st, err := h.Promotions.Stats(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// Create handles POST /api/promotions.
func (h *PromotionHandler) Create(c echo.Context) error {
	var req promotionReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := h.promotion(c, req, 0)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Promotions.Create(ctx, &p); err != nil {
		return promotionError(c, err)
	}
	h.announce(c)
	return c.JSON(http.StatusCreated, p)
}

// Update handles PUT /api/promotions/:id.
func (h *PromotionHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req promotionReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := h.promotion(c, req, id)
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Promotions.Update(ctx, p); err != nil {
		return promotionError(c, err)
	}
	h.announce(c)
	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/promotions/:id.
func (h *PromotionHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Promotions.Delete(ctx, id); err != nil {
		return promotionError(c, err)
	}
	h.announce(c)
	return c.NoContent(http.StatusNoContent)
}

type quoteReq struct {
	PromotionID uint64  `json:"promotion_id" validate:"required"`
	Subtotal    float64 `json:"subtotal" validate:"gt=0"`
}

// Quote handles POST /api/promotions/quote and previews the discount a
// promotion gives on subtotal.
func (h *PromotionHandler) Quote(c echo.Context) error {
	var req quoteReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	p, err := h.Promotions.Get(ctx, req.PromotionID)
	if err != nil {
		return promotionError(c, err)
	}
	if err := service.Redeemable(p, h.Now()); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	d, err := service.Discount(p, req.Subtotal)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"promotion_id": p.ID,
		"code":         p.Code,
		"subtotal":     req.Subtotal,
		"discount":     d,
		"total":        req.Subtotal - d,
	})
}

// announce pushes the fresh list and statistics to dashboards.
func (h *PromotionHandler) announce(c echo.Context) {
	ctx, cancel := dbContext(c)
	defer cancel()
	list, err := h.Promotions.List(ctx)
	if err != nil {
		c.Logger().Warnf("promotions broadcast: %v", err)
		h.Changes.Announce(c, "", nil, promotionsRoute)
		return
	}
	h.Changes.Announce(c, "promotions_update", echo.Map{
		"promotions": list,
		"statistics": service.PromotionSummary(list),
	}, promotionsRoute)
}
