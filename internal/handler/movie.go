package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/model"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/tmdb"
)

const moviesRoute = "/api/movies"

// MovieSource is the metadata provider movies are imported from.
type MovieSource interface {
	NowPlaying(ctx context.Context) ([]json.RawMessage, error)
	Movie(ctx context.Context, id uint64) (tmdb.Details, error)
	Credits(ctx context.Context, id uint64) ([]model.CastMember, error)
}

type MovieHandler struct {
	Movies  *repository.MovieRepo
	Source  MovieSource
	Changes *Changes
}

func NewMovieHandler(mr *repository.MovieRepo, src MovieSource, ch *Changes) *MovieHandler {
	return &MovieHandler{Movies: mr, Source: src, Changes: ch}
}

// List handles GET /api/movies.
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()
	items, err := h.Movies.List(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Upcoming handles GET /api/movies/upcoming by relaying TMDB's now-playing
// list.
func (h *MovieHandler) Upcoming(c echo.Context) error {
	movies, err := h.Source.NowPlaying(c.Request().Context())
	if err != nil {
		c.Logger().Warnf("tmdb now_playing: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "movie provider unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": movies})
}

type importReq struct {
	MovieID    uint64  `json:"movie_id" validate:"required"`
	ImportCost float64 `json:"import_cost" validate:"gte=0"`
}

// Import handles POST /api/movies: the movie is fetched from TMDB and
// stored with its genres and cast.
func (h *MovieHandler) Import(c echo.Context) error {
	var req importReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	dbCtx, cancel := dbContext(c)
	exists, err := h.Movies.Exists(dbCtx, req.MovieID)
	cancel()
	if err != nil {
		return err
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "movie already exists"})
	}

	d, err := h.Source.Movie(ctx, req.MovieID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found on TMDB"})
		}
		c.Logger().Warnf("tmdb movie %d: %v", req.MovieID, err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "movie provider unavailable"})
	}
	cast, err := h.Source.Credits(ctx, req.MovieID)
	if err != nil {
		c.Logger().Warnf("tmdb credits %d: %v", req.MovieID, err)
		cast = nil
	}

	m := d.Movie(req.ImportCost)
	dbCtx, cancel = dbContext(c)
	defer cancel()
	if err := h.Movies.Import(dbCtx, m, d.Genres, cast); err != nil {
		if errors.Is(err, repository.ErrMovieExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie already exists"})
		}
		return err
	}
	h.Changes.Announce(c, "movieAdded", m, moviesRoute)
	return c.JSON(http.StatusCreated, m)
}
