package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/repository/memory"
)

var admin = model.Principal{UserID: 1, IsAdmin: true}

type fixture struct {
	store     *memory.Store
	catalog   *Catalog
	favorites *Favorites
	comments  *Comments
	auth      *Auth
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	f := &fixture{
		store:     st,
		catalog:   NewCatalog(st, st, st),
		favorites: NewFavorites(st, st),
		comments:  NewComments(st, st),
		auth: NewAuth(st, st, AuthOptions{
			JWTSecret:  "test-secret",
			AccessTTL:  time.Minute,
			RefreshTTL: time.Hour,
			BcryptCost: bcrypt.MinCost,
		}),
	}
	// user 1 is the admin used by catalog mutations
	f.user(t, "admin", true)
	return f
}

func (f *fixture) user(t *testing.T, name string, isAdmin bool) model.Principal {
	t.Helper()
	id, err := f.store.CreateUser(context.Background(), &model.User{Username: name, IsAdmin: isAdmin})
	require.NoError(t, err)
	return model.Principal{UserID: id, IsAdmin: isAdmin}
}

func (f *fixture) movie(t *testing.T, kpID int64, title string) model.Movie {
	t.Helper()
	m, err := f.catalog.CreateMovie(context.Background(), admin, MovieInput{KinopoiskID: &kpID, Title: &title})
	require.NoError(t, err)
	return m
}

func ptr[T any](v T) *T { return &v }
