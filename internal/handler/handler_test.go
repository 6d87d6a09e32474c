package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanex63/kinopoisk/internal/apperror"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler
	return e
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
		fields map[string]string
	}{
		{"not found", apperror.Missing("movie not found"), http.StatusNotFound, "movie not found", nil},
		{"forbidden", apperror.Forbidden("nope"), http.StatusForbidden, "nope", nil},
		{"field", apperror.Field("slug", "taken"), http.StatusBadRequest, "validation failed", map[string]string{"slug": "taken"}},
		{"echo http error", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed", nil},
		{"internal hides cause", apperror.E("db down", errors.New("dial tcp")), http.StatusInternalServerError, "internal server error", nil},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal server error", nil},
	}
	e := newEcho()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			ErrorHandler(tc.err, c)

			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tc.msg, body.Error)
			assert.Equal(t, tc.fields, body.Fields)
		})
	}
}

func TestBindValidation(t *testing.T) {
	e := newEcho()
	e.POST("/movies", func(c echo.Context) error {
		var req movieReq
		if err := bind(c, &req); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	cases := []struct {
		body   string
		status int
		field  string
	}{
		{`{"kinopoisk_id": 1, "title": "Ok", "year": 1999, "rating": 8.7}`, http.StatusNoContent, ""},
		{`{"year": 1800}`, http.StatusBadRequest, "year"},
		{`{"year": 2101}`, http.StatusBadRequest, "year"},
		{`{"rating": 10.5}`, http.StatusBadRequest, "rating"},
		{`{"rating": -1}`, http.StatusBadRequest, "rating"},
		{`{"duration": -5}`, http.StatusBadRequest, "duration"},
		{`{"kinopoisk_id": 0}`, http.StatusBadRequest, "kinopoisk_id"},
		{`{"genre_ids": [0]}`, http.StatusBadRequest, "genre_ids[0]"},
		{`{"title": `, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.body, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/movies", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			if tc.field != "" {
				assert.Contains(t, decode(t, rec).Fields, tc.field)
			}
		})
	}
}

func TestRegisterValidationUsesJSONNames(t *testing.T) {
	err := NewValidator().Validate(&registerReq{Username: "bob", Password: "short"})
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.Validation, ae.Kind)
	assert.Equal(t, "must be at least 8 characters", ae.Fields["password"])
	assert.NotContains(t, ae.Fields, "username")
}

func TestMovieQuery(t *testing.T) {
	e := newEcho()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?genre=3&year=1999&search=%20matrix%20&ordering=-year&page=2&page_size=5", nil), httptest.NewRecorder())
	q, err := movieQuery(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), q.GenreID)
	assert.Equal(t, 1999, q.Year)
	assert.Equal(t, "matrix", q.Search)
	assert.Equal(t, "-year", q.Ordering)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 5, q.PageSize)

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?year=abc&genre=x", nil), httptest.NewRecorder())
	_, err = movieQuery(c)
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Contains(t, ae.Fields, "year")
	assert.Contains(t, ae.Fields, "genre")
}

func TestPathID(t *testing.T) {
	e := newEcho()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")

	c.SetParamValues("42")
	id, err := pathID(c, "id")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"abc", "0", "-1"} {
		c.SetParamValues(bad)
		_, err := pathID(c, "id")
		assert.True(t, apperror.Is(err, apperror.NotFound), bad)
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	require.NoError(t, Health(nil)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
