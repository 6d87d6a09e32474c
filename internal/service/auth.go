package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wanex63/kinopoisk/internal/apperror"
	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/repository"
	"github.com/wanex63/kinopoisk/internal/utils"
)

// AuthOptions configures token issuing and password hashing.
type AuthOptions struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Profile  model.Profile
}

// Session is the result of a successful login.
type Session struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
	User    model.User
}

const maxUsernameLen = 150

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// Auth implements registration, login, token refresh and profile access.
type Auth struct {
	Users  UserStore
	Tokens TokenStore
	Opts   AuthOptions
}

func NewAuth(u UserStore, t TokenStore, opts AuthOptions) *Auth {
	return &Auth{Users: u, Tokens: t, Opts: opts}
}

// Register creates a user. No tokens are issued; the client logs in next.
func (s *Auth) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	username := strings.TrimSpace(in.Username)
	fields := map[string]string{}
	switch {
	case username == "":
		fields["username"] = "this field is required"
	case utf8.RuneCountInString(username) > maxUsernameLen:
		fields["username"] = "must be at most 150 characters"
	case !usernamePattern.MatchString(username):
		fields["username"] = "may contain only letters, digits and @/./+/-/_"
	}
	if utf8.RuneCountInString(in.Password) < utils.MinPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}
	for k, v := range profileFieldErrors(in.Profile) {
		fields[k] = v
	}
	if len(fields) > 0 {
		return model.User{}, apperror.Fields(fields)
	}

	hash, err := utils.HashPassword(in.Password, s.Opts.BcryptCost)
	if err != nil {
		return model.User{}, apperror.E("hash password failed", err)
	}
	u := model.User{
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Profile:      in.Profile,
	}
	id, err := s.Users.CreateUser(ctx, &u)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return model.User{}, apperror.Field("username", "a user with that username already exists")
		}
		return model.User{}, apperror.E("create user failed", err)
	}
	u.ID = id
	return u, nil
}

// Login verifies credentials and issues an access/refresh pair.
func (s *Auth) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, apperror.Fields(requiredFields(map[string]string{"username": username, "password": password}))
	}
	u, err := s.Users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, apperror.Unauthenticated("invalid credentials")
		}
		return Session{}, apperror.E("query failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, apperror.Unauthenticated("invalid credentials")
	}

	access, err := s.issueAccess(u)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(s.Opts.RefreshTTL)
	if err != nil {
		return Session{}, apperror.E("issue refresh failed", err)
	}
	if err := s.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, apperror.E("save refresh failed", err)
	}
	return Session{Access: access, Refresh: refresh, User: u}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *Auth) Refresh(ctx context.Context, raw string) (utils.AccessToken, error) {
	userID, err := s.validateRefresh(ctx, raw)
	if err != nil {
		return utils.AccessToken{}, err
	}
	u, err := s.Users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.AccessToken{}, apperror.Unauthenticated("invalid refresh")
		}
		return utils.AccessToken{}, apperror.E("load user failed", err)
	}
	return s.issueAccess(u)
}

// Logout revokes the given refresh token.
func (s *Auth) Logout(ctx context.Context, raw string) error {
	if _, err := s.validateRefresh(ctx, raw); err != nil {
		return err
	}
	if err := s.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(strings.TrimSpace(raw))); err != nil {
		return apperror.E("logout failed", err)
	}
	return nil
}

// Profile returns the actor's user record.
func (s *Auth) Profile(ctx context.Context, actor model.Principal) (model.User, error) {
	u, err := s.Users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, apperror.Unauthenticated("user no longer exists")
		}
		return model.User{}, apperror.E("load user failed", err)
	}
	return u, nil
}

// UpdateProfile applies patch to the actor's profile fields.
func (s *Auth) UpdateProfile(ctx context.Context, actor model.Principal, patch model.ProfilePatch) (model.User, error) {
	u, err := s.Profile(ctx, actor)
	if err != nil {
		return model.User{}, err
	}
	p := patch.Apply(u.Profile)
	if fields := profileFieldErrors(p); len(fields) > 0 {
		return model.User{}, apperror.Fields(fields)
	}
	if err := s.Users.UpdateProfile(ctx, u.ID, p); err != nil {
		return model.User{}, apperror.E("update profile failed", err)
	}
	u.Profile = p
	return u, nil
}

func (s *Auth) validateRefresh(ctx context.Context, raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperror.Field("refresh", "this field is required")
	}
	userID, err := s.Tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrInvalidRefresh) {
			return 0, apperror.Unauthenticated("invalid refresh")
		}
		return 0, apperror.E("validate refresh failed", err)
	}
	return userID, nil
}

func (s *Auth) issueAccess(u model.User) (utils.AccessToken, error) {
	p := model.Principal{UserID: u.ID, IsAdmin: u.IsAdmin}
	access, err := utils.NewAccessToken(s.Opts.JWTSecret, u.ID, u.IsAdmin, p.Role(), s.Opts.AccessTTL)
	if err != nil {
		return utils.AccessToken{}, apperror.E("issue access failed", err)
	}
	return access, nil
}

var profileLimits = []struct {
	field string
	max   int
	get   func(model.Profile) string
}{
	{"first_name", 150, func(p model.Profile) string { return p.FirstName }},
	{"last_name", 150, func(p model.Profile) string { return p.LastName }},
	{"work", 255, func(p model.Profile) string { return p.Work }},
	{"education", 255, func(p model.Profile) string { return p.Education }},
	{"profession", 255, func(p model.Profile) string { return p.Profession }},
	{"city", 255, func(p model.Profile) string { return p.City }},
	{"avatar", 500, func(p model.Profile) string { return p.Avatar }},
}

func profileFieldErrors(p model.Profile) map[string]string {
	out := map[string]string{}
	for _, l := range profileLimits {
		if utf8.RuneCountInString(l.get(p)) > l.max {
			out[l.field] = "too long"
		}
	}
	return out
}

func requiredFields(values map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range values {
		if v == "" {
			out[k] = "this field is required"
		}
	}
	return out
}
