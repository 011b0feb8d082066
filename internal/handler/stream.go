package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemaops/internal/hls"
)

// StreamHandler serves HLS playlists and segments from the video tree.
// Errors are plain text, which is what the player surfaces.
type StreamHandler struct {
	Library  *hls.Library
	BasePath string // public prefix the rewritten playlist points at
}

func NewStreamHandler(lib *hls.Library, basePath string) *StreamHandler {
	return &StreamHandler{Library: lib, BasePath: basePath}
}

// Playlist handles GET /api/stream?id=<movieId>.
func (h *StreamHandler) Playlist(c echo.Context) error {
	id := c.QueryParam("id")
	if id == "" {
		return c.String(http.StatusBadRequest, "missing movie id")
	}
	body, err := h.Library.ReadPlaylist(id, h.BasePath)
	switch {
	case errors.Is(err, hls.ErrBadName):
		return c.String(http.StatusBadRequest, "invalid movie id")
	case errors.Is(err, hls.ErrNotFound):
		return c.String(http.StatusNotFound, "playlist not found")
	case err != nil:
		c.Logger().Errorf("read playlist %q: %v", id, err)
		return c.String(http.StatusInternalServerError, "error reading playlist")
	}
	hdr := c.Response().Header()
	hdr.Set(echo.HeaderAccessControlAllowOrigin, "*")
	hdr.Set("Cache-Control", "no-cache")
	return c.Blob(http.StatusOK, "application/vnd.apple.mpegurl", body)
}

// Segment handles GET /api/stream/segment?id=<movieId>&file=<name>.ts.
func (h *StreamHandler) Segment(c echo.Context) error {
	id, file := c.QueryParam("id"), c.QueryParam("file")
	if id == "" || file == "" {
		return c.String(http.StatusBadRequest, "missing movie id or file name")
	}
	f, size, err := h.Library.OpenSegment(id, file)
	switch {
	case errors.Is(err, hls.ErrNotTS):
		return c.String(http.StatusBadRequest, "only .ts files are served")
	case errors.Is(err, hls.ErrBadName):
		return c.String(http.StatusBadRequest, "invalid movie id or file name")
	case errors.Is(err, hls.ErrNotFound):
		return c.String(http.StatusNotFound, "segment not found: "+file)
	case err != nil:
		c.Logger().Errorf("open segment %q/%q: %v", id, file, err)
		return c.String(http.StatusInternalServerError, "error streaming segment")
	}
	defer f.Close()

	hdr := c.Response().Header()
	hdr.Set(echo.HeaderContentLength, strconv.FormatInt(size, 10))
	hdr.Set(echo.HeaderAccessControlAllowOrigin, "*")
	hdr.Set("Cache-Control", "public, max-age=31536000")
	return c.Stream(http.StatusOK, "video/mp2t", f)
}

// Titles lists the streamable titles.
func (h *StreamHandler) Titles(c echo.Context) error {
	titles, err := h.Library.Titles()
	if err != nil {
		c.Logger().Errorf("list titles: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list titles failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"titles": titles})
}
