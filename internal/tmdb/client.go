// Package tmdb is a small client for the parts of The Movie Database API the
// catalogue uses: now-playing listings, movie details and credits.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/cinemaops/internal/model"
)

// ErrNotFound is returned when TMDB has no movie with the requested id.
var ErrNotFound = errors.New("tmdb: movie not found")

// Client calls TMDB with a v4 read access token sent as a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Details is the subset of /movie/{id} that is stored on import.
type Details struct {
	ID               uint64        `json:"id"`
	Title            string        `json:"title"`
	OriginalTitle    string        `json:"original_title"`
	OriginalLanguage string        `json:"original_language"`
	Overview         string        `json:"overview"`
	PosterPath       string        `json:"poster_path"`
	BackdropPath     string        `json:"backdrop_path"`
	ReleaseDate      string        `json:"release_date"`
	Popularity       float64       `json:"popularity"`
	VoteAverage      float64       `json:"vote_average"`
	VoteCount        int           `json:"vote_count"`
	Genres           []model.Genre `json:"genres"`
}

// Movie converts d into the stored representation.
func (d Details) Movie(importCost float64) model.Movie {
	m := model.Movie{
		ID:               d.ID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		OriginalLanguage: d.OriginalLanguage,
		Overview:         d.Overview,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		ReleaseDate:      d.ReleaseDate,
		Popularity:       d.Popularity,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		ImportCost:       importCost,
		Genres:           make([]string, 0, len(d.Genres)),
	}
	for _, g := range d.Genres {
		m.Genres = append(m.Genres, g.Name)
	}
	return m
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("tmdb: read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.Unmarshal(body, &e)
		return fmt.Errorf("tmdb: %s: status %d %s", path, resp.StatusCode, e.StatusMessage)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tmdb: decode %s: %w", path, err)
	}
	return nil
}

// NowPlaying returns the raw `results` of /movie/now_playing.  Entries are
// passed through unchanged.
func (c *Client) NowPlaying(ctx context.Context) ([]json.RawMessage, error) {
	var data struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := c.get(ctx, "/movie/now_playing", &data); err != nil {
		return nil, err
	}
	if data.Results == nil {
		data.Results = []json.RawMessage{}
	}
	return data.Results, nil
}

// Movie fetches /movie/{id}.
func (c *Client) Movie(ctx context.Context, id uint64) (Details, error) {
	var d Details
	err := c.get(ctx, fmt.Sprintf("/movie/%d", id), &d)
	return d, err
}

// Credits fetches the cast list of /movie/{id}/credits.
func (c *Client) Credits(ctx context.Context, id uint64) ([]model.CastMember, error) {
	var data struct {
		Cast []model.CastMember `json:"cast"`
	}
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/credits", id), &data); err != nil {
		return nil, err
	}
	return data.Cast, nil
}
