package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/wanex63/kinopoisk/internal/apperror"
	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/repository"
)

// Paging defaults for the movie list.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Movie field bounds.
const (
	MinYear         = 1888
	MaxYear         = 2100
	MinRating       = 0.0
	MaxRating       = 10.0
	maxTitleLen     = 255
	maxGenreName    = 100
	maxPosterURL    = 500
	slugCreateTries = 3
)

// MoviePage is one page of the movie list.
type MoviePage struct {
	Items    []model.Movie
	Total    int
	Page     int
	PageSize int
}

// MovieDetail is a movie as seen by a particular viewer.
type MovieDetail struct {
	model.Movie
	IsFavorite bool
}

// MovieInput carries the writable movie fields. A nil pointer means the
// field was not supplied: PATCH leaves it unchanged, PUT clears it.
type MovieInput struct {
	KinopoiskID   *int64
	Title         *string
	OriginalTitle *string
	Description   *string
	Year          *int
	Rating        *float64
	PosterURL     *string
	Duration      *int
	Countries     []string // nil means not supplied
	GenreIDs      []uint64 // nil means not supplied
}

// Catalog implements movie and genre operations.
type Catalog struct {
	Movies    MovieStore
	Genres    GenreStore
	Favorites FavoriteStore
}

func NewCatalog(m MovieStore, g GenreStore, f FavoriteStore) *Catalog {
	return &Catalog{Movies: m, Genres: g, Favorites: f}
}

// ListMovies returns a page of movies. Out-of-range paging values are
// clamped and an unknown ordering falls back to the default.
func (s *Catalog) ListMovies(ctx context.Context, q model.MovieQuery) (MoviePage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	// Keeps (Page-1)*PageSize and the end of the page within int.
	if maxPage := math.MaxInt/q.PageSize - 1; q.Page > maxPage {
		q.Page = maxPage
	}
	if !model.ValidOrdering(q.Ordering) {
		q.Ordering = model.DefaultOrdering
	}
	items, total, err := s.Movies.ListMovies(ctx, q)
	if err != nil {
		return MoviePage{}, apperror.E("list movies failed", err)
	}
	return MoviePage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// RetrieveMovie loads a movie. IsFavorite is true only when viewer is
// non-nil and has favorited it.
func (s *Catalog) RetrieveMovie(ctx context.Context, viewer *model.Principal, id uint64) (MovieDetail, error) {
	m, err := s.Movies.GetMovie(ctx, id)
	if err != nil {
		return MovieDetail{}, notFoundOr(err, "movie not found", "load movie failed")
	}
	out := MovieDetail{Movie: m}
	if viewer != nil {
		fav, err := s.Favorites.IsFavorite(ctx, viewer.UserID, id)
		if err != nil {
			return MovieDetail{}, apperror.E("load favorite failed", err)
		}
		out.IsFavorite = fav
	}
	return out, nil
}

// CreateMovie validates in and stores a new movie.
func (s *Catalog) CreateMovie(ctx context.Context, actor model.Principal, in MovieInput) (model.Movie, error) {
	if !actor.IsAdmin {
		return model.Movie{}, apperror.Forbidden("admin rights required")
	}
	var m model.Movie
	if err := s.applyInput(ctx, &m, in, false); err != nil {
		return model.Movie{}, err
	}
	id, err := s.Movies.CreateMovie(ctx, &m)
	if err != nil {
		return model.Movie{}, movieWriteErr(err)
	}
	return s.reload(ctx, id)
}

// UpdateMovie replaces (partial=false) or patches (partial=true) a movie.
func (s *Catalog) UpdateMovie(ctx context.Context, actor model.Principal, id uint64, in MovieInput, partial bool) (model.Movie, error) {
	if !actor.IsAdmin {
		return model.Movie{}, apperror.Forbidden("admin rights required")
	}
	m, err := s.Movies.GetMovie(ctx, id)
	if err != nil {
		return model.Movie{}, notFoundOr(err, "movie not found", "load movie failed")
	}
	if err := s.applyInput(ctx, &m, in, partial); err != nil {
		return model.Movie{}, err
	}
	if err := s.Movies.UpdateMovie(ctx, &m); err != nil {
		return model.Movie{}, movieWriteErr(err)
	}
	return s.reload(ctx, id)
}

// DeleteMovie removes a movie along with its favorites and comments.
func (s *Catalog) DeleteMovie(ctx context.Context, actor model.Principal, id uint64) error {
	if !actor.IsAdmin {
		return apperror.Forbidden("admin rights required")
	}
	if err := s.Movies.DeleteMovie(ctx, id); err != nil {
		return notFoundOr(err, "movie not found", "delete movie failed")
	}
	return nil
}

func (s *Catalog) reload(ctx context.Context, id uint64) (model.Movie, error) {
	m, err := s.Movies.GetMovie(ctx, id)
	if err != nil {
		return model.Movie{}, apperror.E("load movie failed", err)
	}
	return m, nil
}

// applyInput validates in and writes it onto m. When partial is false
// kinopoisk_id and title are required and absent optional fields are
// reset to their zero value.
func (s *Catalog) applyInput(ctx context.Context, m *model.Movie, in MovieInput, partial bool) error {
	fields := map[string]string{}

	if in.KinopoiskID != nil {
		if *in.KinopoiskID < 1 {
			fields["kinopoisk_id"] = "must be a positive integer"
		}
		m.KinopoiskID = *in.KinopoiskID
	} else if !partial {
		fields["kinopoisk_id"] = "this field is required"
	}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		switch {
		case t == "":
			fields["title"] = "this field may not be blank"
		case utf8.RuneCountInString(t) > maxTitleLen:
			fields["title"] = "must be at most 255 characters"
		}
		m.Title = t
	} else if !partial {
		fields["title"] = "this field is required"
	}

	if in.OriginalTitle != nil || !partial {
		m.OriginalTitle = strings.TrimSpace(deref(in.OriginalTitle))
		if utf8.RuneCountInString(m.OriginalTitle) > maxTitleLen {
			fields["original_title"] = "must be at most 255 characters"
		}
	}
	if in.Description != nil || !partial {
		m.Description = deref(in.Description)
	}
	if in.PosterURL != nil || !partial {
		m.PosterURL = strings.TrimSpace(deref(in.PosterURL))
		if len(m.PosterURL) > maxPosterURL {
			fields["poster_url"] = "must be at most 500 characters"
		}
	}
	if in.Year != nil || !partial {
		m.Year = in.Year
		if in.Year != nil && (*in.Year < MinYear || *in.Year > MaxYear) {
			fields["year"] = "must be between 1888 and 2100"
		}
	}
	if in.Rating != nil || !partial {
		m.Rating = in.Rating
		if in.Rating != nil && (*in.Rating < MinRating || *in.Rating > MaxRating) {
			fields["rating"] = "must be between 0 and 10"
		}
	}
	if in.Duration != nil || !partial {
		m.Duration = in.Duration
		if in.Duration != nil && *in.Duration < 0 {
			fields["duration"] = "must be zero or greater"
		}
	}
	if in.Countries != nil || !partial {
		m.Countries = append([]string{}, in.Countries...)
	}

	if in.GenreIDs != nil || !partial {
		genres, err := s.resolveGenres(ctx, in.GenreIDs)
		if err != nil {
			var ae *apperror.Error
			if errors.As(err, &ae) && ae.Kind == apperror.Validation {
				fields["genre_ids"] = ae.Fields["genre_ids"]
			} else {
				return err
			}
		}
		m.Genres = genres
	}

	if len(fields) > 0 {
		return apperror.Fields(fields)
	}
	return nil
}

func (s *Catalog) resolveGenres(ctx context.Context, ids []uint64) ([]model.Genre, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []model.Genre{}, nil
	}
	genres, err := s.Genres.GenresByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.E("load genres failed", err)
	}
	if len(genres) != len(ids) {
		return nil, apperror.Field("genre_ids", "unknown genre id")
	}
	return genres, nil
}

// ListGenres returns all genres ordered by name.
func (s *Catalog) ListGenres(ctx context.Context) ([]model.Genre, error) {
	gs, err := s.Genres.ListGenres(ctx)
	if err != nil {
		return nil, apperror.E("list genres failed", err)
	}
	return gs, nil
}

// CreateGenre stores a genre. An empty slug is derived from the name and
// suffixed until unique; a supplied slug is normalized and must be free.
func (s *Catalog) CreateGenre(ctx context.Context, actor model.Principal, name, slug string) (model.Genre, error) {
	if !actor.IsAdmin {
		return model.Genre{}, apperror.Forbidden("admin rights required")
	}
	return s.createGenre(ctx, name, slug)
}

// GetOrCreateGenre returns the genre called name, creating it when absent.
func (s *Catalog) GetOrCreateGenre(ctx context.Context, name string) (model.Genre, error) {
	name = strings.TrimSpace(name)
	g, err := s.Genres.GetGenreByName(ctx, name)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Genre{}, apperror.E("load genre failed", err)
	}
	g, err = s.createGenre(ctx, name, "")
	if ae, ok := apperror.As(err); ok && ae.Fields["name"] != "" {
		// Lost a race against a concurrent insert of the same name.
		if g, err := s.Genres.GetGenreByName(ctx, name); err == nil {
			return g, nil
		}
	}
	return g, err
}

func (s *Catalog) createGenre(ctx context.Context, name, slug string) (model.Genre, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return model.Genre{}, apperror.Field("name", "this field may not be blank")
	case utf8.RuneCountInString(name) > maxGenreName:
		return model.Genre{}, apperror.Field("name", "must be at most 100 characters")
	}

	explicit := strings.TrimSpace(slug) != ""
	base := Slugify(name)
	if explicit {
		base = Slugify(slug)
	}

	for attempt := 0; attempt < slugCreateTries; attempt++ {
		g := model.Genre{Name: name, Slug: base}
		if !explicit {
			taken, err := s.Genres.SlugsWithPrefix(ctx, SlugRoot(base))
			if err != nil {
				return model.Genre{}, apperror.E("load slugs failed", err)
			}
			g.Slug = UniqueSlug(base, taken)
		}
		id, err := s.Genres.CreateGenre(ctx, &g)
		switch {
		case err == nil:
			g.ID = id
			return g, nil
		case errors.Is(err, repository.ErrGenreNameTaken):
			return model.Genre{}, apperror.Field("name", "genre with this name already exists")
		case errors.Is(err, repository.ErrGenreSlugTaken):
			if explicit {
				return model.Genre{}, apperror.Field("slug", "genre with this slug already exists")
			}
			// A concurrent insert took the derived slug; recompute.
		default:
			return model.Genre{}, apperror.E("create genre failed", err)
		}
	}
	return model.Genre{}, apperror.New(apperror.Conflict, "could not allocate a unique slug", nil)
}

func movieWriteErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateExternalID):
		return apperror.Field("kinopoisk_id", "movie with this kinopoisk_id already exists")
	case errors.Is(err, repository.ErrNotFound):
		return apperror.Missing("movie not found")
	}
	return apperror.E("save movie failed", err)
}

// notFoundOr maps repository.ErrNotFound to a NotFound error with
// notFound as message and anything else to an Internal error.
func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.Missing(notFound)
	}
	return apperror.E(internal, err)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
