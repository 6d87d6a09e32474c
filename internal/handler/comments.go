package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wanex63/kinopoisk/internal/service"
)

// CommentHandler serves /movies/:movieId/comments.
type CommentHandler struct {
	Comments *service.Comments
}

func NewCommentHandler(s *service.Comments) *CommentHandler {
	return &CommentHandler{Comments: s}
}

func (h *CommentHandler) List(c echo.Context) error {
	movieID, err := pathID(c, "movieId")
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cs, err := h.Comments.List(ctx, movieID)
	if err != nil {
		return err
	}
	out := make([]commentResp, 0, len(cs))
	for _, cm := range cs {
		out = append(out, toComment(cm))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CommentHandler) Get(c echo.Context) error {
	movieID, id, err := commentIDs(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cm, err := h.Comments.Retrieve(ctx, movieID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toComment(cm))
}

// Create posts a comment as the caller; any author field in the body is ignored.
func (h *CommentHandler) Create(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	movieID, err := pathID(c, "movieId")
	if err != nil {
		return err
	}
	var req commentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cm, err := h.Comments.Create(ctx, actor, movieID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toComment(cm))
}

func (h *CommentHandler) Update(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	movieID, id, err := commentIDs(c)
	if err != nil {
		return err
	}
	var req commentReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	cm, err := h.Comments.Update(ctx, actor, movieID, id, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toComment(cm))
}

func (h *CommentHandler) Delete(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	movieID, id, err := commentIDs(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Comments.Delete(ctx, actor, movieID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func commentIDs(c echo.Context) (movieID, id uint64, err error) {
	if movieID, err = pathID(c, "movieId"); err != nil {
		return 0, 0, err
	}
	if id, err = pathID(c, "id"); err != nil {
		return 0, 0, err
	}
	return movieID, id, nil
}
