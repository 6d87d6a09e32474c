package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/repository"
)

func ptr[T any](v T) *T { return &v }

func seedMovie(t *testing.T, s *Store, kpID int64, title string, rating *float64) uint64 {
	t.Helper()
	id, err := s.CreateMovie(context.Background(), &model.Movie{KinopoiskID: kpID, Title: title, Rating: rating})
	require.NoError(t, err)
	return id
}

func TestListMoviesOrderingPutsNullRatingLastDescending(t *testing.T) {
	s := New()
	low := seedMovie(t, s, 1, "Low", ptr(5.0))
	none := seedMovie(t, s, 2, "None", nil)
	high := seedMovie(t, s, 3, "High", ptr(9.0))

	ctx := context.Background()
	got, total, err := s.ListMovies(ctx, model.MovieQuery{Ordering: model.OrderRatingDesc, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []uint64{high, low, none}, ids(got))

	got, _, err = s.ListMovies(ctx, model.MovieQuery{Ordering: model.OrderRatingAsc, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []uint64{none, low, high}, ids(got))
}

func TestListMoviesPaging(t *testing.T) {
	s := New()
	for i := int64(1); i <= 5; i++ {
		seedMovie(t, s, i, "M", ptr(float64(i)))
	}
	got, total, err := s.ListMovies(context.Background(), model.MovieQuery{Ordering: model.OrderRatingDesc, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, *got[0].Rating)

	got, _, err = s.ListMovies(context.Background(), model.MovieQuery{Page: 9, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateMovieRejectsDuplicateKinopoiskID(t *testing.T) {
	s := New()
	seedMovie(t, s, 42, "A", nil)
	_, err := s.CreateMovie(context.Background(), &model.Movie{KinopoiskID: 42, Title: "B"})
	assert.ErrorIs(t, err, repository.ErrDuplicateExternalID)
}

func TestDeleteMovieCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	uid, err := s.CreateUser(ctx, &model.User{Username: "alice"})
	require.NoError(t, err)
	mid := seedMovie(t, s, 1, "A", nil)
	_, err = s.InsertFavorite(ctx, uid, mid)
	require.NoError(t, err)
	_, err = s.CreateComment(ctx, &model.Comment{UserID: uid, MovieID: mid, Text: "hi"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteMovie(ctx, mid))
	assert.Equal(t, 0, s.Favorites())
	comments, err := s.ListComments(ctx, mid)
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.ErrorIs(t, s.DeleteMovie(ctx, mid), repository.ErrNotFound)
}

func TestFavoriteUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	uid, _ := s.CreateUser(ctx, &model.User{Username: "bob"})
	mid := seedMovie(t, s, 1, "A", nil)

	_, err := s.InsertFavorite(ctx, uid, mid)
	require.NoError(t, err)
	_, err = s.InsertFavorite(ctx, uid, mid)
	assert.ErrorIs(t, err, repository.ErrFavoriteExists)
	_, err = s.InsertFavorite(ctx, uid, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, s.Favorites())
}

func TestGenreUniqueIndexes(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.CreateGenre(ctx, &model.Genre{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)
	_, err = s.CreateGenre(ctx, &model.Genre{Name: "Drama", Slug: "drama-1"})
	assert.ErrorIs(t, err, repository.ErrGenreNameTaken)
	_, err = s.CreateGenre(ctx, &model.Genre{Name: "drama", Slug: "drama"})
	assert.ErrorIs(t, err, repository.ErrGenreSlugTaken)

	slugs, err := s.SlugsWithPrefix(ctx, "drama")
	require.NoError(t, err)
	assert.Equal(t, []string{"drama"}, slugs)
}

func ids(ms []model.Movie) []uint64 {
	out := make([]uint64, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}
