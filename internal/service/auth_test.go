package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanex63/kinopoisk/internal/apperror"
	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Email: " Alice@Example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "password1", u.PasswordHash)

	s, err := f.auth.Login(ctx, "alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.User.ID)
	uid, isAdmin, err := utils.ParseAccessToken("test-secret", s.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)
	assert.False(t, isAdmin)

	_, err = f.auth.Login(ctx, "alice", "wrong-password")
	assert.Equal(t, apperror.Authentication, apperror.KindOf(err))
	_, err = f.auth.Login(ctx, "nobody", "password1")
	assert.Equal(t, apperror.Authentication, apperror.KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Password: "password1"})
	require.NoError(t, err)

	cases := map[string]struct {
		in    RegisterInput
		field string
	}{
		"duplicate":      {RegisterInput{Username: "alice", Password: "password1"}, "username"},
		"short password": {RegisterInput{Username: "bob", Password: "short"}, "password"},
		"bad chars":      {RegisterInput{Username: "bob smith", Password: "password1"}, "username"},
		"too long":       {RegisterInput{Username: strings.Repeat("b", 151), Password: "password1"}, "username"},
		"empty":          {RegisterInput{Password: "password1"}, "username"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.Register(ctx, tc.in)
			ae, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.Validation, ae.Kind)
			assert.Contains(t, ae.Fields, tc.field)
		})
	}
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, RegisterInput{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	s, err := f.auth.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	access, err := f.auth.Refresh(ctx, s.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEmpty(t, access.Token)

	// not rotated: the same refresh token keeps working
	_, err = f.auth.Refresh(ctx, s.Refresh.Raw)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, s.Refresh.Raw))
	_, err = f.auth.Refresh(ctx, s.Refresh.Raw)
	assert.Equal(t, apperror.Authentication, apperror.KindOf(err))

	_, err = f.auth.Refresh(ctx, "unknown")
	assert.Equal(t, apperror.Authentication, apperror.KindOf(err))
	_, err = f.auth.Refresh(ctx, "")
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}

func TestUpdateProfileIsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.auth.Register(ctx, RegisterInput{
		Username: "alice",
		Password: "password1",
		Profile:  model.Profile{City: "Moscow", Bio: "hi"},
	})
	require.NoError(t, err)
	actor := model.Principal{UserID: u.ID}

	updated, err := f.auth.UpdateProfile(ctx, actor, model.ProfilePatch{FirstName: ptr("Alice")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Profile.FirstName)
	assert.Equal(t, "Moscow", updated.Profile.City)
	assert.Equal(t, "alice", updated.Username)

	got, err := f.auth.Profile(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Profile.FirstName)

	_, err = f.auth.UpdateProfile(ctx, actor, model.ProfilePatch{City: ptr(strings.Repeat("c", 256))})
	assert.Equal(t, apperror.Validation, apperror.KindOf(err))
}
