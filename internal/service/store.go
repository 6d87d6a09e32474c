// Package service holds the catalog, favorites, comments and auth
// operations. Every operation that depends on identity takes the caller
// as an explicit model.Principal; storage is reached through the narrow
// interfaces below, satisfied by both the MySQL repositories and the
// in-memory store.
package service

import (
	"context"
	"time"

	"github.com/wanex63/kinopoisk/internal/model"
)

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) (uint64, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUserByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, p model.Profile) error
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// GenreStore persists genres.
type GenreStore interface {
	ListGenres(ctx context.Context) ([]model.Genre, error)
	GenresByIDs(ctx context.Context, ids []uint64) ([]model.Genre, error)
	GetGenreByName(ctx context.Context, name string) (model.Genre, error)
	SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	CreateGenre(ctx context.Context, g *model.Genre) (uint64, error)
}

// MovieStore persists movies and their genre links.
type MovieStore interface {
	ListMovies(ctx context.Context, q model.MovieQuery) ([]model.Movie, int, error)
	GetMovie(ctx context.Context, id uint64) (model.Movie, error)
	MovieExists(ctx context.Context, id uint64) (bool, error)
	KinopoiskIDExists(ctx context.Context, kinopoiskID int64) (bool, error)
	CreateMovie(ctx context.Context, m *model.Movie) (uint64, error)
	UpdateMovie(ctx context.Context, m *model.Movie) error
	DeleteMovie(ctx context.Context, id uint64) error
}

// FavoriteStore persists the favorites relation.
type FavoriteStore interface {
	InsertFavorite(ctx context.Context, userID, movieID uint64) (uint64, error)
	GetFavorite(ctx context.Context, userID, movieID uint64) (model.Favorite, error)
	IsFavorite(ctx context.Context, userID, movieID uint64) (bool, error)
	DeleteFavorite(ctx context.Context, userID, movieID uint64) error
	ListFavorites(ctx context.Context, userID uint64) ([]model.Favorite, error)
}

// CommentStore persists comments.
type CommentStore interface {
	ListComments(ctx context.Context, movieID uint64) ([]model.Comment, error)
	GetComment(ctx context.Context, id uint64) (model.Comment, error)
	CreateComment(ctx context.Context, c *model.Comment) (uint64, error)
	UpdateCommentText(ctx context.Context, id uint64, text string) error
	DeleteComment(ctx context.Context, id uint64) error
}
