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

const tiersRoute = "/api/membershiptiers"

// MembershipHandler serves membership tiers and customer cards.
type MembershipHandler struct {
	Members *repository.MembershipRepo
	Changes *Changes
}

func NewMembershipHandler(mr *repository.MembershipRepo, ch *Changes) *MembershipHandler {
	return &MembershipHandler{Members: mr, Changes: ch}
}

type tierReq struct {
	Name      string `json:"name" validate:"required,max=100"`
	MinPoints int    `json:"min_points" validate:"gte=0"`
	Benefits  string `json:"benefits"`
}

func tierError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrTierNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "membership tier not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "membership tier already exists"})
	}
	return err
}

// ListTiers handles GET /api/membershiptiers.
func (h *MembershipHandler) ListTiers(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	tiers, err := h.Members.ListTiers(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tiers)
}

// CreateTier handles POST /api/membershiptiers.
func (h *MembershipHandler) CreateTier(c echo.Context) error {
	var req tierReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	t := model.MembershipTier{Name: strings.TrimSpace(req.Name), MinPoints: req.MinPoints, Benefits: req.Benefits}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Members.CreateTier(ctx, &t); err != nil {
		return tierError(c, err)
	}
	h.Changes.Announce(c, "membershiptiers_update", echo.Map{"action": "add", "tier": t}, tiersRoute)
	return c.JSON(http.StatusCreated, t)
}

// UpdateTier handles PUT /api/membershiptiers/:id.
func (h *MembershipHandler) UpdateTier(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req tierReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	t := model.MembershipTier{ID: id, Name: strings.TrimSpace(req.Name), MinPoints: req.MinPoints, Benefits: req.Benefits}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Members.UpdateTier(ctx, t); err != nil {
		return tierError(c, err)
	}
	h.Changes.Announce(c, "membershiptiers_update", echo.Map{"action": "update", "tier": t}, tiersRoute)
	return c.JSON(http.StatusOK, t)
}

// DeleteTier handles DELETE /api/membershiptiers/:id.
func (h *MembershipHandler) DeleteTier(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Members.DeleteTier(ctx, id); err != nil {
		return tierError(c, err)
	}
	h.Changes.Announce(c, "membershiptiers_update", echo.Map{"action": "delete", "id": id}, tiersRoute)
	return c.NoContent(http.StatusNoContent)
}

// Register handles POST /api/memberships/register.
func (h *MembershipHandler) Register(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Members.Register(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "membership already exists"})
		}
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

// Me handles GET /api/memberships/me: the caller's card and current tier.
func (h *MembershipHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	m, err := h.Members.GetByUser(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "membership not found"})
		}
		return err
	}
	tiers, err := h.Members.ListTiers(ctx)
	if err != nil {
		return err
	}
	m.Tier = service.CurrentTier(tiers, m.Points)
	return c.JSON(http.StatusOK, m)
}
