package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/wanex63/kinopoisk/internal/model"
)

// GenreRepo manages the genres table.
type GenreRepo struct{ DB *sql.DB }

func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{DB: db} }

// ListGenres returns all genres ordered by name.
func (r *GenreRepo) ListGenres(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id,name,slug FROM genres ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GenresByIDs returns the genres whose ids are in ids. Unknown ids are
// silently absent from the result.
func (r *GenreRepo) GenresByIDs(ctx context.Context, ids []uint64) ([]model.Genre, error) {
	if len(ids) == 0 {
		return []model.Genre{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,slug FROM genres WHERE id IN ("+placeholders(len(ids))+") ORDER BY name, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Slug); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGenreByName looks a genre up by exact name.
func (r *GenreRepo) GetGenreByName(ctx context.Context, name string) (model.Genre, error) {
	var g model.Genre
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,slug FROM genres WHERE name=? LIMIT 1", name).Scan(&g.ID, &g.Name, &g.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Genre{}, ErrNotFound
	}
	return g, err
}

// SlugsWithPrefix returns the existing slugs that start with prefix.
func (r *GenreRepo) SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT slug FROM genres WHERE slug LIKE ? ESCAPE '\\'`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateGenre inserts g and returns its id.
func (r *GenreRepo) CreateGenre(ctx context.Context, g *model.Genre) (uint64, error) {
	res, err := r.DB.ExecContext(ctx, "INSERT INTO genres (name, slug) VALUES (?,?)", g.Name, g.Slug)
	if err != nil {
		switch {
		case isDuplicate(err, "uq_genres_name"):
			return 0, ErrGenreNameTaken
		case isDuplicate(err, "uq_genres_slug"):
			return 0, ErrGenreSlugTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
