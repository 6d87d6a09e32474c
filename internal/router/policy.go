package router

import (
	"github.com/labstack/echo/v4"

	"github.com/wanex63/kinopoisk/internal/middleware"
)

// Operation names used for route guards and authorization metrics.
const (
	OpRegister       = "auth.register"
	OpLogin          = "auth.login"
	OpRefresh        = "auth.refresh"
	OpLogout         = "auth.logout"
	OpProfileRead    = "auth.profile.read"
	OpProfileUpdate  = "auth.profile.update"
	OpGenresList     = "genres.list"
	OpGenresCreate   = "genres.create"
	OpMoviesList     = "movies.list"
	OpMoviesCreate   = "movies.create"
	OpMoviesRetrieve = "movies.retrieve"
	OpMoviesUpdate   = "movies.update"
	OpMoviesDelete   = "movies.delete"
	OpFavoritesList  = "favorites.list"
	OpFavoritesAdd   = "favorites.add"
	OpFavoritesDel   = "favorites.remove"
	OpCommentsList   = "comments.list"
	OpCommentsCreate = "comments.create"
	OpCommentsGet    = "comments.retrieve"
	OpCommentsUpdate = "comments.update"
	OpCommentsDelete = "comments.delete"
)

// Policy is the access level required by each operation. Ownership of
// comments is checked by the comment service on top of this table.
var Policy = map[string]middleware.Access{
	OpRegister:       middleware.Public,
	OpLogin:          middleware.Public,
	OpRefresh:        middleware.Public,
	OpLogout:         middleware.Public,
	OpProfileRead:    middleware.Authenticated,
	OpProfileUpdate:  middleware.Authenticated,
	OpGenresList:     middleware.Public,
	OpGenresCreate:   middleware.Admin,
	OpMoviesList:     middleware.Public,
	OpMoviesCreate:   middleware.Admin,
	OpMoviesRetrieve: middleware.Public,
	OpMoviesUpdate:   middleware.Admin,
	OpMoviesDelete:   middleware.Admin,
	OpFavoritesList:  middleware.Authenticated,
	OpFavoritesAdd:   middleware.Authenticated,
	OpFavoritesDel:   middleware.Authenticated,
	OpCommentsList:   middleware.Public,
	OpCommentsCreate: middleware.Authenticated,
	OpCommentsGet:    middleware.Public,
	OpCommentsUpdate: middleware.Authenticated,
	OpCommentsDelete: middleware.Authenticated,
}

// guard returns the middleware for op. An operation missing from the
// table is treated as admin-only.
func guard(op string) echo.MiddlewareFunc {
	access, ok := Policy[op]
	if !ok {
		access = middleware.Admin
	}
	return middleware.Guard(op, access)
}
