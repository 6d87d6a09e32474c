package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wanex63/kinopoisk/internal/service"
)

// FavoriteHandler serves /movies/favorites.
type FavoriteHandler struct {
	Favorites *service.Favorites
}

func NewFavoriteHandler(s *service.Favorites) *FavoriteHandler {
	return &FavoriteHandler{Favorites: s}
}

func (h *FavoriteHandler) List(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	favs, err := h.Favorites.List(ctx, actor)
	if err != nil {
		return err
	}
	out := make([]favoriteResp, 0, len(favs))
	for _, f := range favs {
		out = append(out, toFavorite(f))
	}
	return c.JSON(http.StatusOK, out)
}

// Add answers 201 for a new favorite and 200 when it already existed.
func (h *FavoriteHandler) Add(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	movieID, err := pathID(c, "movieId")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	fav, created, err := h.Favorites.Add(ctx, actor, movieID)
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, toFavorite(fav))
}

func (h *FavoriteHandler) Remove(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	movieID, err := pathID(c, "movieId")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Favorites.Remove(ctx, actor, movieID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
