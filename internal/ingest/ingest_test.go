package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanex63/kinopoisk/internal/config"
	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/repository/memory"
	"github.com/wanex63/kinopoisk/internal/service"
)

// fakeAPI serves two popular pages and film details. Film 3 has no
// localized name, film 4 always fails.
func fakeAPI(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	films := map[string]string{
		"1": `{"kinopoiskId":1,"nameRu":"Матрица","nameOriginal":"The Matrix","year":1999,"ratingKinopoisk":8.5,
		       "filmLength":136,"countries":[{"country":"США"}],"genres":[{"genre":"фантастика"},{"genre":"боевик"}]}`,
		"2": `{"kinopoiskId":2,"nameRu":"Солярис","year":1972,"ratingKinopoisk":null,"genres":[{"genre":"фантастика"}]}`,
		"3": `{"kinopoiskId":3,"nameRu":null,"nameOriginal":"Untitled","year":2020}`,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("X-API-KEY") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/films/top" {
			switch r.URL.Query().Get("page") {
			case "1":
				fmt.Fprint(w, `{"pagesCount":2,"films":[{"filmId":1},{"filmId":2}]}`)
			case "2":
				fmt.Fprint(w, `{"pagesCount":2,"films":[{"filmId":3},{"filmId":4}]}`)
			default:
				fmt.Fprint(w, `{"pagesCount":2,"films":[]}`)
			}
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/films/")
		body, ok := films[id]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, body)
	}))
}

func newClient(url string, maxFailures uint32) *Client {
	return NewClient(config.KinopoiskConfig{
		APIKey:      "key",
		BaseURL:     url + "/films/",
		Timeout:     2 * time.Second,
		RPS:         0,
		Burst:       1,
		MaxFailures: maxFailures,
	})
}

func newIngester(src Source) (*Ingester, *memory.Store) {
	st := memory.New()
	return New(src, service.NewCatalog(st, st, st), st), st
}

func TestIngestPopular(t *testing.T) {
	var calls atomic.Int32
	srv := fakeAPI(t, &calls)
	defer srv.Close()

	in, st := newIngester(newClient(srv.URL, 10))
	ctx := context.Background()

	rep, err := in.IngestPopular(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, Report{Seen: 4, Created: 3, Skipped: 0, Failed: 1}, rep)

	page, _, err := st.ListMovies(ctx, model.MovieQuery{Search: "matrix", Ordering: model.DefaultOrdering, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page, 1)
	m := page[0]
	assert.Equal(t, "Матрица", m.Title)
	assert.Equal(t, []string{"США"}, m.Countries)
	require.NotNil(t, m.Duration)
	assert.Equal(t, 136, *m.Duration)
	assert.Len(t, m.Genres, 2)

	genres, err := st.ListGenres(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 2, "shared genre is created once")

	movies, total, err := st.ListMovies(ctx, model.MovieQuery{Search: "untitled", Ordering: model.DefaultOrdering, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "No title", movies[0].Title)

	// Second run skips everything already stored and retries the failure.
	rep, err = in.IngestPopular(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, Report{Seen: 4, Created: 0, Skipped: 3, Failed: 1}, rep)
}

func TestIngestStopsWhenBreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/films/top" {
			fmt.Fprint(w, `{"pagesCount":1,"films":[{"filmId":10},{"filmId":11},{"filmId":12},{"filmId":13}]}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	in, _ := newIngester(newClient(srv.URL, 2))
	rep, err := in.IngestPopular(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, BreakerOpen(err))
	assert.Equal(t, 3, rep.Failed, "two upstream failures trip the breaker, the third call is rejected")
	assert.Equal(t, 0, rep.Created)
}

func TestFilmNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := newClient(srv.URL, 1)
	for range 3 {
		_, err := c.Film(context.Background(), 99)
		assert.ErrorIs(t, err, ErrFilmNotFound)
	}
}

func TestPopularStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL, 5).Popular(context.Background(), 1)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestIngestOneSkipsExisting(t *testing.T) {
	var calls atomic.Int32
	srv := fakeAPI(t, &calls)
	defer srv.Close()

	in, _ := newIngester(newClient(srv.URL, 5))
	ctx := context.Background()

	o, err := in.IngestOne(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, Created, o)

	before := calls.Load()
	o, err = in.IngestOne(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, Skipped, o)
	assert.Equal(t, before, calls.Load(), "existing film is not fetched again")
}
