package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/wanex63/kinopoisk/internal/apperror"
	"github.com/wanex63/kinopoisk/internal/logging"
	"github.com/wanex63/kinopoisk/internal/metrics"
	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/service"
)

// fallbackTitle is stored when the upstream has no localized name.
const fallbackTitle = "No title"

// Source is the upstream catalog; *Client implements it.
type Source interface {
	Popular(ctx context.Context, page int) (PopularPage, error)
	Film(ctx context.Context, id int64) (Film, error)
}

// Outcome of importing one film.
type Outcome string

const (
	Created Outcome = "created"
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
)

// Report summarizes a batch.
type Report struct {
	Seen    int
	Created int
	Skipped int
	Failed  int
}

func (r *Report) add(o Outcome) {
	r.Seen++
	switch o {
	case Created:
		r.Created++
	case Skipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// Ingester writes upstream films into the catalog as the system principal.
type Ingester struct {
	Source  Source
	Catalog *service.Catalog
	Movies  service.MovieStore
}

func New(src Source, cat *service.Catalog, movies service.MovieStore) *Ingester {
	return &Ingester{Source: src, Catalog: cat, Movies: movies}
}

var system = model.Principal{IsAdmin: true}

// ListPopular returns the film ids on the first pages of the popular list.
func (in *Ingester) ListPopular(ctx context.Context, pages int) ([]int64, error) {
	var ids []int64
	for page := 1; page <= pages; page++ {
		p, err := in.Source.Popular(ctx, page)
		if err != nil {
			return ids, fmt.Errorf("list popular page %d: %w", page, err)
		}
		logging.Info().Int("page", page).Int("films", len(p.Films)).Msg("popular page fetched")
		for _, f := range p.Films {
			ids = append(ids, f.FilmID)
		}
		if p.PagesCount > 0 && page >= p.PagesCount {
			break
		}
	}
	return ids, nil
}

// IngestPopular imports every film on the first pages of the popular
// list. A failing film is logged and counted; the batch stops only when
// listing fails, the context ends, or the circuit breaker opens.
func (in *Ingester) IngestPopular(ctx context.Context, pages int) (Report, error) {
	var rep Report
	ids, err := in.ListPopular(ctx, pages)
	for _, id := range ids {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		o, ferr := in.IngestOne(ctx, id)
		rep.add(o)
		if ferr != nil && BreakerOpen(ferr) {
			return rep, ferr
		}
	}
	return rep, err
}

// IngestOne imports a single film. Existing kinopoisk ids are skipped.
// The returned error is set only for Failed.
func (in *Ingester) IngestOne(ctx context.Context, id int64) (Outcome, error) {
	o, err := in.ingest(ctx, id)
	metrics.IngestMoviesTotal.WithLabelValues(string(o)).Inc()
	ev := logging.Info()
	if err != nil {
		ev = logging.Error().Err(err)
	}
	ev.Int64("kinopoisk_id", id).Str("outcome", string(o)).Msg("film processed")
	return o, err
}

func (in *Ingester) ingest(ctx context.Context, id int64) (Outcome, error) {
	exists, err := in.Movies.KinopoiskIDExists(ctx, id)
	if err != nil {
		return Failed, fmt.Errorf("check existing: %w", err)
	}
	if exists {
		return Skipped, nil
	}

	film, err := in.Source.Film(ctx, id)
	if err != nil {
		return Failed, err
	}
	if film.KinopoiskID == 0 {
		film.KinopoiskID = id
	}

	input, err := in.movieInput(ctx, film)
	if err != nil {
		return Failed, err
	}
	if _, err := in.Catalog.CreateMovie(ctx, system, input); err != nil {
		// Another worker stored the same film first.
		if ae, ok := apperror.As(err); ok && ae.Fields["kinopoisk_id"] != "" {
			return Skipped, nil
		}
		return Failed, err
	}
	return Created, nil
}

func (in *Ingester) movieInput(ctx context.Context, f Film) (service.MovieInput, error) {
	title := strings.TrimSpace(deref(f.NameRu))
	if title == "" {
		title = fallbackTitle
	}

	genreIDs := []uint64{}
	for _, g := range f.Genres {
		name := strings.TrimSpace(g.Genre)
		if name == "" {
			continue
		}
		genre, err := in.Catalog.GetOrCreateGenre(ctx, name)
		if err != nil {
			return service.MovieInput{}, fmt.Errorf("genre %q: %w", name, err)
		}
		genreIDs = append(genreIDs, genre.ID)
	}

	countries := []string{}
	for _, c := range f.Countries {
		if name := strings.TrimSpace(c.Country); name != "" {
			countries = append(countries, name)
		}
	}

	kpID := f.KinopoiskID
	return service.MovieInput{
		KinopoiskID:   &kpID,
		Title:         &title,
		OriginalTitle: ptr(deref(f.NameOriginal)),
		Description:   ptr(deref(f.Description)),
		Year:          f.Year,
		Rating:        f.RatingKinopoisk,
		PosterURL:     ptr(deref(f.PosterURL)),
		Duration:      f.FilmLength,
		Countries:     countries,
		GenreIDs:      genreIDs,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr[T any](v T) *T { return &v }
