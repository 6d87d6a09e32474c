package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wanex63/kinopoisk/internal/model"
)

// CommentRepo manages movie comments. Reads join users so every comment
// carries its author's username and avatar.
type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

const commentSelect = `SELECT c.id, c.user_id, c.movie_id, c.text, u.username, u.avatar, c.created_at, c.updated_at
	FROM comments c JOIN users u ON u.id = c.user_id`

// ListComments returns the movie's comments newest-first.
func (r *CommentRepo) ListComments(ctx context.Context, movieID uint64) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx,
		commentSelect+" WHERE c.movie_id=? ORDER BY c.created_at DESC, c.id DESC", movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.MovieID, &c.Text, &c.Username, &c.UserAvatar, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetComment loads a comment by id.
func (r *CommentRepo) GetComment(ctx context.Context, id uint64) (model.Comment, error) {
	var c model.Comment
	err := r.DB.QueryRowContext(ctx, commentSelect+" WHERE c.id=? LIMIT 1", id).
		Scan(&c.ID, &c.UserID, &c.MovieID, &c.Text, &c.Username, &c.UserAvatar, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, ErrNotFound
	}
	return c, err
}

// CreateComment inserts a comment and returns its id.
func (r *CommentRepo) CreateComment(ctx context.Context, c *model.Comment) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (user_id, movie_id, text) VALUES (?,?,?)", c.UserID, c.MovieID, c.Text)
	if err != nil {
		if isMissingReference(err) {
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

// UpdateCommentText replaces the text of a comment.
func (r *CommentRepo) UpdateCommentText(ctx context.Context, id uint64, text string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE comments SET text=? WHERE id=?", text, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Unchanged text also reports 0 rows; confirm the row exists.
		if _, err := r.GetComment(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeleteComment removes a comment by id.
func (r *CommentRepo) DeleteComment(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM comments WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
