package model

// Movie mirrors the `movies` table.  IDs are TMDB ids so imports stay
// idempotent.
type Movie struct {
    ID               uint64   `json:"id"`
    Title            string   `json:"title"`
    OriginalTitle    string   `json:"original_title"`
    OriginalLanguage string   `json:"original_language"`
    Overview         string   `json:"overview"`
    PosterPath       string   `json:"poster_path"`
    BackdropPath     string   `json:"backdrop_path"`
    ReleaseDate      string   `json:"release_date"`
    Popularity       float64  `json:"popularity"`
    VoteAverage      float64  `json:"vote_average"`
    VoteCount        int      `json:"vote_count"`
    ImportCost       float64  `json:"import_cost"`
    Genres           []string `json:"genres"`
}

type Genre struct {
    ID   uint64 `json:"id"`
    Name string `json:"name"`
}

// CastMember is one billed actor of a movie.
type CastMember struct {
    ActorID     uint64 `json:"id"`
    CreditID    string `json:"credit_id"`
    Name        string `json:"name"`
    ProfilePath string `json:"profile_path"`
    Character   string `json:"character"`
    Order       int    `json:"order"`
}
