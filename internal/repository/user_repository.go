package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wanex63/kinopoisk/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,first_name,last_name,bio,work,education,profession,city,avatar,is_admin,created_at,updated_at"

// CreateUser inserts u (PasswordHash must already be set) and returns its ID.
func (r *UserRepo) CreateUser(ctx context.Context, u *model.User) (uint64, error) {
	p := u.Profile
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username,email,password_hash,first_name,last_name,bio,work,education,profession,city,avatar,is_admin)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.PasswordHash, p.FirstName, p.LastName, p.Bio, p.Work, p.Education, p.Profession, p.City, p.Avatar, u.IsAdmin)
	if err != nil {
		if isDuplicate(err, "uq_users_username") {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetUserByUsername fetches a user by exact username.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username)
	return scanUser(row)
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// UpdateProfile overwrites the profile columns of the user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, p model.Profile) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?,last_name=?,bio=?,work=?,education=?,profession=?,city=?,avatar=? WHERE id=?`,
		p.FirstName, p.LastName, p.Bio, p.Work, p.Education, p.Profession, p.City, p.Avatar, id)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows when nothing changed, so existence is
	// checked separately.
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	p := &u.Profile
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&p.FirstName, &p.LastName, &p.Bio, &p.Work, &p.Education, &p.Profession, &p.City, &p.Avatar,
		&u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}
