package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanex63/kinopoisk/internal/apperror"
)

func TestAddFavoriteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	m := f.movie(t, 5, "Matrix")

	first, created, err := f.favorites.Add(ctx, alice, m.ID)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, first.Movie)
	assert.Equal(t, "Matrix", first.Movie.Title)

	second, created, err := f.favorites.Add(ctx, alice, m.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.store.Favorites())
}

func TestConcurrentAddsLeaveOneRow(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)
	m := f.movie(t, 5, "Matrix")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, c, err := f.favorites.Add(context.Background(), alice, m.ID)
			assert.NoError(t, err)
			if c {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, f.store.Favorites())
}

func TestAddFavoriteMissingMovie(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", false)
	_, _, err := f.favorites.Add(context.Background(), alice, 404)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestRemoveFavorite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)
	m := f.movie(t, 5, "Matrix")

	_, _, err := f.favorites.Add(ctx, bob, m.ID)
	require.NoError(t, err)

	err = f.favorites.Remove(ctx, alice, m.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
	assert.Equal(t, 1, f.store.Favorites(), "other users' favorites are untouched")

	require.NoError(t, f.favorites.Remove(ctx, bob, m.ID))
	assert.Equal(t, 0, f.store.Favorites())
	assert.Equal(t, apperror.NotFound, apperror.KindOf(f.favorites.Remove(ctx, bob, m.ID)))
}

func TestListFavoritesNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	a := f.movie(t, 1, "A")
	b := f.movie(t, 2, "B")

	_, _, err := f.favorites.Add(ctx, alice, a.ID)
	require.NoError(t, err)
	_, _, err = f.favorites.Add(ctx, alice, b.ID)
	require.NoError(t, err)

	favs, err := f.favorites.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, b.ID, favs[0].MovieID)
	assert.Equal(t, a.ID, favs[1].MovieID)
	require.NotNil(t, favs[0].Movie)
	assert.Equal(t, "B", favs[0].Movie.Title)
}
