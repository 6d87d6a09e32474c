package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wanex63/kinopoisk/internal/apperror"
	"github.com/wanex63/kinopoisk/internal/middleware"
	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/service"
)

// AuthHandler serves the /auth endpoints.
type AuthHandler struct {
	Auth *service.Auth
}

func NewAuthHandler(a *service.Auth) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// Register creates an account. Tokens are not issued; the client logs in next.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Auth.Register(ctx, req.input()); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "user registered successfully"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}
	u := toUser(s.User)
	return c.JSON(http.StatusOK, loginResp{
		userResp: u,
		Access:   s.Access.Token,
		Refresh:  s.Refresh.Raw,
		User:     u,
	})
}

// Refresh mints a new access token. The refresh token stays valid.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, err := h.Auth.Refresh(ctx, req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accessResp{Access: access.Token})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.Refresh); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.Profile(ctx, actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// UpdateMe serves both PUT and PATCH; only supplied fields change.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req profileReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Auth.UpdateProfile(ctx, actor, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUser(u))
}

// requireActor returns the authenticated caller. The route guard normally
// rejects anonymous callers first.
func requireActor(c echo.Context) (model.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return model.Principal{}, apperror.Unauthenticated("authentication credentials were not provided")
	}
	return *p, nil
}
