package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wanex63/kinopoisk/internal/apperror"
	"github.com/wanex63/kinopoisk/internal/middleware"
	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/service"
)

// CatalogHandler serves movies and genres.
type CatalogHandler struct {
	Catalog *service.Catalog
}

func NewCatalogHandler(s *service.Catalog) *CatalogHandler {
	return &CatalogHandler{Catalog: s}
}

// ListMovies handles GET /movies?genre=&year=&search=&ordering=&page=&page_size=
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	q, err := movieQuery(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Catalog.ListMovies(ctx, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMoviePage(page))
}

func movieQuery(c echo.Context) (model.MovieQuery, error) {
	q := model.MovieQuery{
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Ordering: strings.TrimSpace(c.QueryParam("ordering")),
	}
	fields := map[string]string{}
	if v := c.QueryParam("genre"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			fields["genre"] = "must be a genre id"
		}
		q.GenreID = id
	}
	if v := c.QueryParam("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			fields["year"] = "must be an integer"
		}
		q.Year = y
	}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["page"] = "must be an integer"
		}
		q.Page = n
	}
	if v := c.QueryParam("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fields["page_size"] = "must be an integer"
		}
		q.PageSize = n
	}
	if len(fields) > 0 {
		return model.MovieQuery{}, apperror.Fields(fields)
	}
	return q, nil
}

// GetMovie includes is_favorite for the caller; anonymous callers see false.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Catalog.RetrieveMovie(ctx, middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, movieDetailResp{movieResp: toMovie(d.Movie), IsFavorite: d.IsFavorite})
}

func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req movieReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Catalog.CreateMovie(ctx, actor, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMovie(m))
}

// UpdateMovie serves PUT (full replace) and PATCH (supplied fields only).
func (h *CatalogHandler) UpdateMovie(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req movieReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	partial := c.Request().Method == http.MethodPatch
	m, err := h.Catalog.UpdateMovie(ctx, actor, id, req.input(), partial)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMovie(m))
}

func (h *CatalogHandler) DeleteMovie(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Catalog.DeleteMovie(ctx, actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) ListGenres(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	gs, err := h.Catalog.ListGenres(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGenres(gs))
}

func (h *CatalogHandler) CreateGenre(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req genreReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Catalog.CreateGenre(ctx, actor, req.Name, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, genreResp{ID: g.ID, Name: g.Name, Slug: g.Slug})
}

// pathID parses a numeric path parameter. Anything else cannot name a
// row, so it is reported as not found.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Missing("not found")
	}
	return id, nil
}
