package service

import (
	"context"
	"errors"

	"github.com/wanex63/kinopoisk/internal/apperror"
	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/repository"
)

// Favorites implements the per-user favorites relation.
type Favorites struct {
	Favorites FavoriteStore
	Movies    MovieStore
}

func NewFavorites(f FavoriteStore, m MovieStore) *Favorites {
	return &Favorites{Favorites: f, Movies: m}
}

// Add favorites movieID for the actor. It is idempotent: created reports
// whether a new row was written, and an existing pair is returned as is.
// The unique index on (user_id, movie_id) settles concurrent adds.
func (s *Favorites) Add(ctx context.Context, actor model.Principal, movieID uint64) (fav model.Favorite, created bool, err error) {
	exists, err := s.Movies.MovieExists(ctx, movieID)
	if err != nil {
		return model.Favorite{}, false, apperror.E("load movie failed", err)
	}
	if !exists {
		return model.Favorite{}, false, apperror.Missing("movie not found")
	}

	if fav, err := s.Favorites.GetFavorite(ctx, actor.UserID, movieID); err == nil {
		return s.withMovie(ctx, fav), false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.Favorite{}, false, apperror.E("load favorite failed", err)
	}

	_, err = s.Favorites.InsertFavorite(ctx, actor.UserID, movieID)
	switch {
	case err == nil:
		created = true
	case errors.Is(err, repository.ErrFavoriteExists):
		created = false
	case errors.Is(err, repository.ErrNotFound):
		return model.Favorite{}, false, apperror.Missing("movie not found")
	default:
		return model.Favorite{}, false, apperror.E("add favorite failed", err)
	}

	fav, err = s.Favorites.GetFavorite(ctx, actor.UserID, movieID)
	if err != nil {
		return model.Favorite{}, false, apperror.E("load favorite failed", err)
	}
	return s.withMovie(ctx, fav), created, nil
}

// Remove deletes the actor's favorite for movieID.
func (s *Favorites) Remove(ctx context.Context, actor model.Principal, movieID uint64) error {
	if err := s.Favorites.DeleteFavorite(ctx, actor.UserID, movieID); err != nil {
		return notFoundOr(err, "favorite not found", "remove favorite failed")
	}
	return nil
}

// List returns the actor's favorites newest-first.
func (s *Favorites) List(ctx context.Context, actor model.Principal) ([]model.Favorite, error) {
	favs, err := s.Favorites.ListFavorites(ctx, actor.UserID)
	if err != nil {
		return nil, apperror.E("list favorites failed", err)
	}
	return favs, nil
}

func (s *Favorites) withMovie(ctx context.Context, f model.Favorite) model.Favorite {
	if m, err := s.Movies.GetMovie(ctx, f.MovieID); err == nil {
		f.Movie = &m
	}
	return f
}
