// Package ingest imports films from the unofficial Kinopoisk API into
// the catalog.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/wanex63/kinopoisk/internal/config"
	"github.com/wanex63/kinopoisk/internal/logging"
	"github.com/wanex63/kinopoisk/internal/metrics"
)

// ErrFilmNotFound is returned by Film for an id the upstream does not know.
var ErrFilmNotFound = errors.New("film not found upstream")

// StatusError is an unexpected upstream HTTP status.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("kinopoisk %s: unexpected status %d", e.Endpoint, e.Code)
}

// PopularPage is one page of TOP_100_POPULAR_FILMS.
type PopularPage struct {
	PagesCount int           `json:"pagesCount"`
	Films      []PopularFilm `json:"films"`
}

type PopularFilm struct {
	FilmID int64  `json:"filmId"`
	NameRu string `json:"nameRu"`
}

// Film is the detail record of /films/{id}. Nullable upstream fields are pointers.
type Film struct {
	KinopoiskID     int64    `json:"kinopoiskId"`
	NameRu          *string  `json:"nameRu"`
	NameOriginal    *string  `json:"nameOriginal"`
	Description     *string  `json:"description"`
	Year            *int     `json:"year"`
	RatingKinopoisk *float64 `json:"ratingKinopoisk"`
	PosterURL       *string  `json:"posterUrl"`
	FilmLength      *int     `json:"filmLength"`
	Countries       []struct {
		Country string `json:"country"`
	} `json:"countries"`
	Genres []struct {
		Genre string `json:"genre"`
	} `json:"genres"`
}

// Client calls the Kinopoisk API. Requests are throttled by a token
// bucket and pass through a circuit breaker that opens after
// MaxFailures consecutive failures.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func NewClient(cfg config.KinopoiskConfig) *Client {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	burst := max(cfg.Burst, 1)
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "kinopoisk-api",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A missing film is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrFilmNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: rate.NewLimiter(limit, burst),
		cb:      cb,
	}
}

// Popular returns page of the popular films list (pages are 1-based).
func (c *Client) Popular(ctx context.Context, page int) (PopularPage, error) {
	url := c.baseURL + "top?type=TOP_100_POPULAR_FILMS&page=" + strconv.Itoa(page)
	var out PopularPage
	if err := c.getJSON(ctx, "top", url, &out); err != nil {
		return PopularPage{}, err
	}
	return out, nil
}

// Film returns the detail record for id.
func (c *Client) Film(ctx context.Context, id int64) (Film, error) {
	url := c.baseURL + strconv.FormatInt(id, 10)
	var out Film
	if err := c.getJSON(ctx, "film", url, &out); err != nil {
		return Film{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, url string, dst any) error {
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.get(ctx, endpoint, url)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "rejected").Inc()
		return fmt.Errorf("kinopoisk %s: %w", endpoint, err)
	case errors.Is(err, ErrFilmNotFound):
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "not_found").Inc()
		return err
	case err != nil:
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "failure").Inc()
		return err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("kinopoisk %s: decode: %w", endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kinopoisk %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && endpoint == "film":
		return nil, ErrFilmNotFound
	case resp.StatusCode/100 != 2:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

// BreakerOpen reports whether err came from an open circuit.
func BreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
