package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/goccy/go-json"

	"github.com/wanex63/kinopoisk/internal/model"
)

// MovieRepo manages movies together with their genre links.
type MovieRepo struct{ DB *sql.DB }

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{DB: db} }

const movieColumns = "m.id,m.kinopoisk_id,m.title,m.original_title,m.description,m.year,m.rating,m.poster_url,m.duration,m.countries,m.created_at,m.updated_at"

// orderClauses maps an ordering value to SQL. MySQL sorts NULLs first
// ascending and last descending; the in-memory store mirrors that.
var orderClauses = map[string]string{
	model.OrderRatingDesc: "m.rating DESC, m.id ASC",
	model.OrderRatingAsc:  "m.rating ASC, m.id ASC",
	model.OrderYearDesc:   "m.year DESC, m.id ASC",
	model.OrderYearAsc:    "m.year ASC, m.id ASC",
	model.OrderTitleDesc:  "m.title DESC, m.id ASC",
	model.OrderTitleAsc:   "m.title ASC, m.id ASC",
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ListMovies returns one page of movies matching q together with the
// total number of matches.
func (r *MovieRepo) ListMovies(ctx context.Context, q model.MovieQuery) ([]model.Movie, int, error) {
	var (
		where []string
		args  []any
	)
	if q.GenreID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM movie_genres mg WHERE mg.movie_id=m.id AND mg.genre_id=?)")
		args = append(args, q.GenreID)
	}
	if q.Year != 0 {
		where = append(where, "m.year=?")
		args = append(args, q.Year)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		where = append(where, "(LOWER(m.title) LIKE ? OR LOWER(m.original_title) LIKE ? OR LOWER(m.description) LIKE ?)")
		args = append(args, like, like, like)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies m"+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := orderClauses[q.Ordering]
	if !ok {
		order = orderClauses[model.DefaultOrdering]
	}
	pageArgs := append(append([]any{}, args...), q.PageSize, q.Offset())
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies m"+cond+" ORDER BY "+order+" LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	movies, err := scanMovies(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := attachGenres(ctx, r.DB, movies); err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

// GetMovie loads a single movie with its genres.
func (r *MovieRepo) GetMovie(ctx context.Context, id uint64) (model.Movie, error) {
	movies, err := moviesByIDs(ctx, r.DB, []uint64{id})
	if err != nil {
		return model.Movie{}, err
	}
	if len(movies) == 0 {
		return model.Movie{}, ErrNotFound
	}
	return movies[0], nil
}

// MovieExists reports whether a movie with id exists.
func (r *MovieRepo) MovieExists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id=?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// KinopoiskIDExists reports whether a movie with the external id exists.
func (r *MovieRepo) KinopoiskIDExists(ctx context.Context, kinopoiskID int64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE kinopoisk_id=?", kinopoiskID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// CreateMovie inserts m and links m.Genres in one transaction.
func (r *MovieRepo) CreateMovie(ctx context.Context, m *model.Movie) (uint64, error) {
	countries, err := encodeCountries(m.Countries)
	if err != nil {
		return 0, err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO movies (kinopoisk_id,title,original_title,description,year,rating,poster_url,duration,countries)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		m.KinopoiskID, m.Title, m.OriginalTitle, m.Description, m.Year, m.Rating, m.PosterURL, m.Duration, countries)
	if err != nil {
		if isDuplicate(err, "uq_movies_kinopoisk_id") {
			return 0, ErrDuplicateExternalID
		}
		return 0, err
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	id := uint64(id64)
	if err := linkGenres(ctx, tx, id, m.GenreIDs()); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateMovie overwrites every column of m and replaces its genre links.
func (r *MovieRepo) UpdateMovie(ctx context.Context, m *model.Movie) error {
	countries, err := encodeCountries(m.Countries)
	if err != nil {
		return err
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	if err := tx.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id=? FOR UPDATE", m.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE movies SET kinopoisk_id=?,title=?,original_title=?,description=?,year=?,rating=?,poster_url=?,duration=?,countries=?
		 WHERE id=?`,
		m.KinopoiskID, m.Title, m.OriginalTitle, m.Description, m.Year, m.Rating, m.PosterURL, m.Duration, countries, m.ID)
	if err != nil {
		if isDuplicate(err, "uq_movies_kinopoisk_id") {
			return ErrDuplicateExternalID
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM movie_genres WHERE movie_id=?", m.ID); err != nil {
		return err
	}
	if err := linkGenres(ctx, tx, m.ID, m.GenreIDs()); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteMovie removes the movie; favorites, comments and genre links
// go with it through ON DELETE CASCADE.
func (r *MovieRepo) DeleteMovie(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM movies WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func linkGenres(ctx context.Context, ex execer, movieID uint64, genreIDs []uint64) error {
	if len(genreIDs) == 0 {
		return nil
	}
	var (
		values []string
		args   []any
		seen   = make(map[uint64]bool, len(genreIDs))
	)
	for _, gid := range genreIDs {
		if seen[gid] {
			continue
		}
		seen[gid] = true
		values = append(values, "(?,?)")
		args = append(args, movieID, gid)
	}
	// Plain INSERT: IGNORE would turn a missing genre into a warning.
	_, err := ex.ExecContext(ctx,
		"INSERT INTO movie_genres (movie_id, genre_id) VALUES "+strings.Join(values, ","), args...)
	if isMissingReference(err) {
		return ErrNotFound
	}
	return err
}

// moviesByIDs loads movies (with genres) in the order of ids. Missing
// ids are skipped.
func moviesByIDs(ctx context.Context, q queryer, ids []uint64) ([]model.Movie, error) {
	if len(ids) == 0 {
		return []model.Movie{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx,
		"SELECT "+movieColumns+" FROM movies m WHERE m.id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, err
	}
	found, err := scanMovies(rows)
	if err != nil {
		return nil, err
	}
	if err := attachGenres(ctx, q, found); err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Movie, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	out := make([]model.Movie, 0, len(found))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func scanMovies(rows *sql.Rows) ([]model.Movie, error) {
	defer rows.Close()
	out := []model.Movie{}
	for rows.Next() {
		var (
			m         model.Movie
			year      sql.NullInt64
			rating    sql.NullFloat64
			duration  sql.NullInt64
			countries []byte
		)
		if err := rows.Scan(&m.ID, &m.KinopoiskID, &m.Title, &m.OriginalTitle, &m.Description,
			&year, &rating, &m.PosterURL, &duration, &countries, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if year.Valid {
			y := int(year.Int64)
			m.Year = &y
		}
		if rating.Valid {
			v := rating.Float64
			m.Rating = &v
		}
		if duration.Valid {
			d := int(duration.Int64)
			m.Duration = &d
		}
		m.Countries = []string{}
		if len(countries) > 0 {
			if err := json.Unmarshal(countries, &m.Countries); err != nil {
				return nil, err
			}
		}
		m.Genres = []model.Genre{}
		out = append(out, m)
	}
	return out, rows.Err()
}

func attachGenres(ctx context.Context, q queryer, movies []model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(movies))
	args := make([]any, len(movies))
	for i, m := range movies {
		idx[m.ID] = i
		args[i] = m.ID
	}
	rows, err := q.QueryContext(ctx,
		`SELECT mg.movie_id, g.id, g.name, g.slug FROM movie_genres mg
		 JOIN genres g ON g.id = mg.genre_id
		 WHERE mg.movie_id IN (`+placeholders(len(movies))+`) ORDER BY g.name, g.id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			movieID uint64
			g       model.Genre
		)
		if err := rows.Scan(&movieID, &g.ID, &g.Name, &g.Slug); err != nil {
			return err
		}
		if i, ok := idx[movieID]; ok {
			movies[i].Genres = append(movies[i].Genres, g)
		}
	}
	return rows.Err()
}

func encodeCountries(c []string) ([]byte, error) {
	if c == nil {
		c = []string{}
	}
	return json.Marshal(c)
}
