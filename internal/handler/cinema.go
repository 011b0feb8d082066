package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/utils"
)

const cinemasRoute = "/api/cinemas"

// CinemaHandler serves cinema clusters and their business plans.
type CinemaHandler struct {
	Cinemas *repository.CinemaRepo
	Users   *repository.UserRepo
	Changes *Changes
}

func NewCinemaHandler(cr *repository.CinemaRepo, ur *repository.UserRepo, ch *Changes) *CinemaHandler {
	return &CinemaHandler{Cinemas: cr, Users: ur, Changes: ch}
}

type clusterReq struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Description  string  `json:"description"`
	ManagerID    *uint64 `json:"manager_id"`
	Phone        string  `json:"phone" validate:"max=20"`
	Email        string  `json:"email" validate:"omitempty,email"`
	ProvinceCode string  `json:"province_code"`
	DistrictCode string  `json:"district_code"`
	Address      string  `json:"address"`
	Rooms        int     `json:"rooms" validate:"gte=0"`
}

func (r clusterReq) cluster(id uint64) model.Cluster {
	return model.Cluster{
		ID:           id,
		Name:         strings.TrimSpace(r.Name),
		Description:  r.Description,
		ManagerID:    r.ManagerID,
		Phone:        r.Phone,
		Email:        r.Email,
		ProvinceCode: r.ProvinceCode,
		DistrictCode: r.DistrictCode,
		Address:      r.Address,
		Rooms:        r.Rooms,
	}
}

// clusterError maps repository errors shared by the write endpoints.
func clusterError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrCinemaNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
	case errors.Is(err, repository.ErrNotManager):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "manager_id must reference a MANAGER"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cinema name already exists"})
	}
	return err
}

// List handles GET /api/cinemas.
func (h *CinemaHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	items, err := h.Cinemas.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST /api/cinemas.
func (h *CinemaHandler) Create(c echo.Context) error {
	var req clusterReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	cl := req.cluster(0)

	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Cinemas.Create(ctx, &cl); err != nil {
		return clusterError(c, err)
	}
	h.Changes.Announce(c, "cinemaAdded", cl, cinemasRoute)
	return c.JSON(http.StatusCreated, cl)
}

// Update handles PUT /api/cinemas/:id.
func (h *CinemaHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req clusterReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	cl := req.cluster(id)

	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Cinemas.Update(ctx, cl); err != nil {
		return clusterError(c, err)
	}
	h.Changes.Announce(c, "cinemaUpdated", cl, cinemasRoute)
	return c.JSON(http.StatusOK, cl)
}

// AssignManager handles PUT /api/cinemas/:id/manager.
func (h *CinemaHandler) AssignManager(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body struct {
		ManagerID uint64 `json:"manager_id" validate:"required"`
	}
	if err := bindValid(c, &body); err != nil {
		return err
	}

	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Cinemas.AssignManager(ctx, id, body.ManagerID); err != nil {
		return clusterError(c, err)
	}
	updated, err := h.Cinemas.GetByID(ctx, id)
	if err != nil {
		return clusterError(c, err)
	}
	h.Changes.Announce(c, "cinemaUpdated", updated, cinemasRoute)
	return c.JSON(http.StatusOK, updated)
}

// Managers handles GET /api/cinemas/managers.
func (h *CinemaHandler) Managers(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	users, err := h.Users.ListByRole(ctx, model.RoleManager)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

type planReq struct {
	Description string            `json:"description"`
	StartDate   *string           `json:"start_date"`
	EndDate     *string           `json:"end_date"`
	Movies      []model.PlanMovie `json:"movies" validate:"required,min=1,dive"`
}

// CreatePlan handles POST /api/cinemas/:id/plans.
func (h *CinemaHandler) CreatePlan(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req planReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	for _, d := range []*string{req.StartDate, req.EndDate} {
		if d != nil && *d != "" && !utils.IsDate(*d) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "dates must be YYYY-MM-DD"})
		}
	}
	if req.StartDate != nil && req.EndDate != nil && *req.StartDate != "" && *req.EndDate != "" && *req.EndDate < *req.StartDate {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date is before start_date"})
	}
	for _, m := range req.Movies {
		if m.MovieID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id is required"})
		}
	}

	plan := model.BusinessPlan{
		CinemaID:    id,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   uid,
		Movies:      req.Movies,
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	if err := h.Cinemas.CreatePlan(ctx, &plan); err != nil {
		return clusterError(c, err)
	}
	h.Changes.AnnounceStaff(c, "planAdded", plan)
	return c.JSON(http.StatusCreated, plan)
}

// ListPlans handles GET /api/cinemas/:id/plans.
func (h *CinemaHandler) ListPlans(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := dbContext(c)
	defer cancel()
	ok, err := h.Cinemas.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
	}
	plans, err := h.Cinemas.ListPlans(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}
