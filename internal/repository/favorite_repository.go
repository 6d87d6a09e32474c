package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wanex63/kinopoisk/internal/model"
)

// FavoriteRepo manages the favorites join table.
type FavoriteRepo struct{ DB *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{DB: db} }

// InsertFavorite creates the (user, movie) pair. It returns
// ErrFavoriteExists when the unique index rejects the row and
// ErrNotFound when the movie (or user) does not exist.
func (r *FavoriteRepo) InsertFavorite(ctx context.Context, userID, movieID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO favorites (user_id, movie_id) VALUES (?,?)", userID, movieID)
	if err != nil {
		switch {
		case isDuplicate(err, "uq_favorites_user_movie"):
			return 0, ErrFavoriteExists
		case isMissingReference(err):
			return 0, ErrNotFound
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetFavorite returns the favorite for the pair.
func (r *FavoriteRepo) GetFavorite(ctx context.Context, userID, movieID uint64) (model.Favorite, error) {
	var f model.Favorite
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,movie_id,added_at FROM favorites WHERE user_id=? AND movie_id=? LIMIT 1",
		userID, movieID).Scan(&f.ID, &f.UserID, &f.MovieID, &f.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Favorite{}, ErrNotFound
	}
	return f, err
}

// IsFavorite reports whether the user has favorited the movie.
func (r *FavoriteRepo) IsFavorite(ctx context.Context, userID, movieID uint64) (bool, error) {
	_, err := r.GetFavorite(ctx, userID, movieID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// DeleteFavorite removes the pair; ErrNotFound when it does not exist.
func (r *FavoriteRepo) DeleteFavorite(ctx context.Context, userID, movieID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id=? AND movie_id=?", userID, movieID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFavorites returns the user's favorites newest-first with the movie embedded.
func (r *FavoriteRepo) ListFavorites(ctx context.Context, userID uint64) ([]model.Favorite, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,movie_id,added_at FROM favorites WHERE user_id=? ORDER BY added_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	favs := []model.Favorite{}
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.MovieID, &f.AddedAt); err != nil {
			rows.Close()
			return nil, err
		}
		favs = append(favs, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]uint64, len(favs))
	for i, f := range favs {
		ids[i] = f.MovieID
	}
	movies, err := moviesByIDs(ctx, r.DB, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]*model.Movie, len(movies))
	for i := range movies {
		byID[movies[i].ID] = &movies[i]
	}
	for i := range favs {
		favs[i].Movie = byID[favs[i].MovieID]
	}
	return favs, nil
}
