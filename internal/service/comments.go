package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/wanex63/kinopoisk/internal/apperror"
	"github.com/wanex63/kinopoisk/internal/model"
)

// MaxCommentLen bounds the comment text in characters.
const MaxCommentLen = 5000

// Comments implements per-movie comments with an author-or-admin rule
// for edits and deletes.
type Comments struct {
	Comments CommentStore
	Movies   MovieStore
}

func NewComments(c CommentStore, m MovieStore) *Comments {
	return &Comments{Comments: c, Movies: m}
}

// List returns the comments of movieID newest-first.
func (s *Comments) List(ctx context.Context, movieID uint64) ([]model.Comment, error) {
	if err := s.requireMovie(ctx, movieID); err != nil {
		return nil, err
	}
	cs, err := s.Comments.ListComments(ctx, movieID)
	if err != nil {
		return nil, apperror.E("list comments failed", err)
	}
	return cs, nil
}

// Retrieve returns comment id when it belongs to movieID.
func (s *Comments) Retrieve(ctx context.Context, movieID, id uint64) (model.Comment, error) {
	return s.load(ctx, movieID, id)
}

// Create adds a comment authored by actor.
func (s *Comments) Create(ctx context.Context, actor model.Principal, movieID uint64, text string) (model.Comment, error) {
	text, err := cleanCommentText(text)
	if err != nil {
		return model.Comment{}, err
	}
	if err := s.requireMovie(ctx, movieID); err != nil {
		return model.Comment{}, err
	}
	id, err := s.Comments.CreateComment(ctx, &model.Comment{UserID: actor.UserID, MovieID: movieID, Text: text})
	if err != nil {
		return model.Comment{}, notFoundOr(err, "movie not found", "create comment failed")
	}
	c, err := s.Comments.GetComment(ctx, id)
	if err != nil {
		return model.Comment{}, apperror.E("load comment failed", err)
	}
	return c, nil
}

// Update replaces the text of a comment. Only its author or an admin may.
func (s *Comments) Update(ctx context.Context, actor model.Principal, movieID, id uint64, text string) (model.Comment, error) {
	c, err := s.load(ctx, movieID, id)
	if err != nil {
		return model.Comment{}, err
	}
	if !actor.CanModify(c.UserID) {
		return model.Comment{}, apperror.Forbidden("you can only edit your own comments")
	}
	text, err = cleanCommentText(text)
	if err != nil {
		return model.Comment{}, err
	}
	if err := s.Comments.UpdateCommentText(ctx, id, text); err != nil {
		return model.Comment{}, notFoundOr(err, "comment not found", "update comment failed")
	}
	c, err = s.Comments.GetComment(ctx, id)
	if err != nil {
		return model.Comment{}, apperror.E("load comment failed", err)
	}
	return c, nil
}

// Delete removes a comment. Only its author or an admin may.
func (s *Comments) Delete(ctx context.Context, actor model.Principal, movieID, id uint64) error {
	c, err := s.load(ctx, movieID, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(c.UserID) {
		return apperror.Forbidden("you can only delete your own comments")
	}
	if err := s.Comments.DeleteComment(ctx, id); err != nil {
		return notFoundOr(err, "comment not found", "delete comment failed")
	}
	return nil
}

func (s *Comments) load(ctx context.Context, movieID, id uint64) (model.Comment, error) {
	c, err := s.Comments.GetComment(ctx, id)
	if err != nil {
		return model.Comment{}, notFoundOr(err, "comment not found", "load comment failed")
	}
	if c.MovieID != movieID {
		return model.Comment{}, apperror.Missing("comment not found")
	}
	return c, nil
}

func (s *Comments) requireMovie(ctx context.Context, movieID uint64) error {
	ok, err := s.Movies.MovieExists(ctx, movieID)
	if err != nil {
		return apperror.E("load movie failed", err)
	}
	if !ok {
		return apperror.Missing("movie not found")
	}
	return nil
}

func cleanCommentText(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", apperror.Field("text", "this field may not be blank")
	case utf8.RuneCountInString(text) > MaxCommentLen:
		return "", apperror.Field("text", "must be at most 5000 characters")
	}
	return text, nil
}
