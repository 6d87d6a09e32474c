// Package router assembles the Echo application: global middleware,
// the JSON serializer and validator, and every /api route behind its
// access guard.
package router

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wanex63/kinopoisk/internal/config"
	"github.com/wanex63/kinopoisk/internal/handler"
	"github.com/wanex63/kinopoisk/internal/middleware"
	"github.com/wanex63/kinopoisk/internal/service"
)

// Services are the domain services the routes dispatch to.
type Services struct {
	Auth      *service.Auth
	Catalog   *service.Catalog
	Favorites *service.Favorites
	Comments  *service.Comments
}

// Options carries the HTTP-level settings.
type Options struct {
	JWTSecret   string
	BodyLimit   string
	CORSOrigins []string
	RateLimit   config.RateLimitConfig
	Redis       *redis.Client  // nil disables rate limiting
	DB          handler.Pinger // nil when running on the in-memory store
}

// New builds the Echo application.
func New(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	if len(opts.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: opts.CORSOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
		}))
	}
	if opts.BodyLimit != "" {
		e.Use(echomw.BodyLimit(opts.BodyLimit))
	}
	e.Use(middleware.Authenticate(opts.JWTSecret))
	e.Use(middleware.RateLimit(opts.RateLimit, opts.Redis))

	e.GET("/healthz", handler.Health(opts.DB))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	registerAuth(api, handler.NewAuthHandler(svc.Auth))
	registerCatalog(api,
		handler.NewCatalogHandler(svc.Catalog),
		handler.NewFavoriteHandler(svc.Favorites),
		handler.NewCommentHandler(svc.Comments),
	)
	return e
}

func registerAuth(api *echo.Group, a *handler.AuthHandler) {
	g := api.Group("/auth")
	g.POST("/register", a.Register, guard(OpRegister))
	g.POST("/login", a.Login, guard(OpLogin))
	g.POST("/token/refresh", a.Refresh, guard(OpRefresh))
	g.POST("/logout", a.Logout, guard(OpLogout))
	g.GET("/me", a.Me, guard(OpProfileRead))
	g.Match([]string{http.MethodPut, http.MethodPatch}, "/me", a.UpdateMe, guard(OpProfileUpdate))
}

func registerCatalog(api *echo.Group, cat *handler.CatalogHandler, fav *handler.FavoriteHandler, com *handler.CommentHandler) {
	api.GET("/genres", cat.ListGenres, guard(OpGenresList))
	api.POST("/genres", cat.CreateGenre, guard(OpGenresCreate))

	// Static favorites paths take precedence over /movies/:id.
	api.GET("/movies/favorites", fav.List, guard(OpFavoritesList))
	api.POST("/movies/favorites/:movieId", fav.Add, guard(OpFavoritesAdd))
	api.DELETE("/movies/favorites/:movieId", fav.Remove, guard(OpFavoritesDel))

	api.GET("/movies", cat.ListMovies, guard(OpMoviesList))
	api.POST("/movies", cat.CreateMovie, guard(OpMoviesCreate))
	api.GET("/movies/:id", cat.GetMovie, guard(OpMoviesRetrieve))
	api.Match([]string{http.MethodPut, http.MethodPatch}, "/movies/:id", cat.UpdateMovie, guard(OpMoviesUpdate))
	api.DELETE("/movies/:id", cat.DeleteMovie, guard(OpMoviesDelete))

	api.GET("/movies/:movieId/comments", com.List, guard(OpCommentsList))
	api.POST("/movies/:movieId/comments", com.Create, guard(OpCommentsCreate))
	api.GET("/movies/:movieId/comments/:id", com.Get, guard(OpCommentsGet))
	api.Match([]string{http.MethodPut, http.MethodPatch}, "/movies/:movieId/comments/:id", com.Update, guard(OpCommentsUpdate))
	api.DELETE("/movies/:movieId/comments/:id", com.Delete, guard(OpCommentsDelete))
}
