package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinemaops/internal/model"
)

var ErrMovieExists = errors.New("movie already exists")

type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// List returns all movies with their genre names, newest release first.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.title, COALESCE(m.original_title,''), COALESCE(m.original_language,''), COALESCE(m.overview,''),
		 COALESCE(m.poster_path,''), COALESCE(m.backdrop_path,''), COALESCE(DATE_FORMAT(m.release_date,'%Y-%m-%d'),''),
		 m.popularity, m.vote_average, m.vote_count, m.import_cost,
		 COALESCE(GROUP_CONCAT(g.name ORDER BY g.name SEPARATOR ','),'')
		 FROM movies m
		 LEFT JOIN movie_genres mg ON mg.movie_id = m.id
		 LEFT JOIN genres g ON g.id = mg.genre_id
		 GROUP BY m.id
		 ORDER BY m.release_date DESC, m.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Movie{}
	for rows.Next() {
		var (
			m      model.Movie
			genres string
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.OriginalTitle, &m.OriginalLanguage, &m.Overview, &m.PosterPath,
			&m.BackdropPath, &m.ReleaseDate, &m.Popularity, &m.VoteAverage, &m.VoteCount, &m.ImportCost, &genres); err != nil {
			return nil, err
		}
		m.Genres = []string{}
		if genres != "" {
			m.Genres = strings.Split(genres, ",")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Exists reports whether a movie with id has been imported.
func (r *MovieRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Import stores a movie with its genres and cast in one transaction.
func (r *MovieRepo) Import(ctx context.Context, m model.Movie, genres []model.Genre, cast []model.CastMember) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var release interface{}
		if m.ReleaseDate != "" {
			release = m.ReleaseDate
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO movies (id, title, original_title, original_language, overview, poster_path, backdrop_path,
			 release_date, popularity, vote_average, vote_count, import_cost, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
			m.ID, m.Title, m.OriginalTitle, m.OriginalLanguage, m.Overview, m.PosterPath, m.BackdropPath,
			release, m.Popularity, m.VoteAverage, m.VoteCount, m.ImportCost)
		if err != nil {
			if isDuplicate(err) {
				return ErrMovieExists
			}
			return fmt.Errorf("insert movie: %w", err)
		}
		for _, g := range genres {
			if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO genres (id, name) VALUES (?, ?)", g.ID, g.Name); err != nil {
				return fmt.Errorf("insert genre: %w", err)
			}
			if _, err := tx.ExecContext(ctx, "INSERT INTO movie_genres (movie_id, genre_id) VALUES (?, ?)", m.ID, g.ID); err != nil {
				return fmt.Errorf("link genre: %w", err)
			}
		}
		for _, c := range cast {
			if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO actors (id, name, profile_path) VALUES (?, ?, ?)",
				c.ActorID, c.Name, nullString(c.ProfilePath)); err != nil {
				return fmt.Errorf("insert actor: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO movie_casts (movie_id, actor_id, credit_id, characters, orders) VALUES (?, ?, ?, ?, ?)",
				m.ID, c.ActorID, c.CreditID, c.Character, c.Order); err != nil {
				return fmt.Errorf("insert cast: %w", err)
			}
		}
		return nil
	})
}
