// Package memory is an in-process implementation of every repository
// the services depend on. It enforces the same unique indexes and
// cascades as db/schema.sql and returns the sentinel errors of package
// repository, which makes it usable both for STORAGE=memory runs and as
// the fake in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/repository"
)

type refreshRow struct {
	userID    uint64
	expiresAt time.Time
	revoked   bool
}

// Store holds all tables behind a single mutex.
type Store struct {
	mu sync.RWMutex

	nextID map[string]uint64

	users     map[uint64]model.User
	tokens    map[string]refreshRow
	genres    map[uint64]model.Genre
	movies    map[uint64]model.Movie
	links     map[uint64][]uint64 // movie id -> genre ids
	favorites map[uint64]model.Favorite
	comments  map[uint64]model.Comment

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		nextID:    map[string]uint64{},
		users:     map[uint64]model.User{},
		tokens:    map[string]refreshRow{},
		genres:    map[uint64]model.Genre{},
		movies:    map[uint64]model.Movie{},
		links:     map[uint64][]uint64{},
		favorites: map[uint64]model.Favorite{},
		comments:  map[uint64]model.Comment{},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) id(table string) uint64 {
	s.nextID[table]++
	return s.nextID[table]
}

// ----- users -----

func (s *Store) CreateUser(_ context.Context, u *model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return 0, repository.ErrUsernameTaken
		}
	}
	row := *u
	row.ID = s.id("users")
	row.CreatedAt = s.now()
	row.UpdatedAt = row.CreatedAt
	s.users[row.ID] = row
	return row.ID, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Store) UpdateProfile(_ context.Context, id uint64, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Profile = p
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

// ----- refresh tokens -----

func (s *Store) StoreRefresh(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = refreshRow{userID: userID, expiresAt: exp}
	return nil
}

func (s *Store) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.tokens[tokenHash]
	if !ok || row.revoked || s.now().After(row.expiresAt) {
		return 0, repository.ErrInvalidRefresh
	}
	return row.userID, nil
}

func (s *Store) RevokeByHash(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.tokens[tokenHash]; ok {
		row.revoked = true
		s.tokens[tokenHash] = row
	}
	return nil
}

// ----- genres -----

func (s *Store) ListGenres(_ context.Context) ([]model.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Genre, 0, len(s.genres))
	for _, g := range s.genres {
		out = append(out, g)
	}
	sortGenres(out)
	return out, nil
}

func (s *Store) GenresByIDs(_ context.Context, ids []uint64) ([]model.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.genresByIDs(ids), nil
}

func (s *Store) genresByIDs(ids []uint64) []model.Genre {
	seen := map[uint64]bool{}
	out := []model.Genre{}
	for _, id := range ids {
		if g, ok := s.genres[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, g)
		}
	}
	sortGenres(out)
	return out
}

func (s *Store) GetGenreByName(_ context.Context, name string) (model.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.genres {
		if g.Name == name {
			return g, nil
		}
	}
	return model.Genre{}, repository.ErrNotFound
}

func (s *Store) SlugsWithPrefix(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, g := range s.genres {
		if strings.HasPrefix(g.Slug, prefix) {
			out = append(out, g.Slug)
		}
	}
	return out, nil
}

func (s *Store) CreateGenre(_ context.Context, g *model.Genre) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.genres {
		if existing.Name == g.Name {
			return 0, repository.ErrGenreNameTaken
		}
		if existing.Slug == g.Slug {
			return 0, repository.ErrGenreSlugTaken
		}
	}
	row := *g
	row.ID = s.id("genres")
	s.genres[row.ID] = row
	return row.ID, nil
}

func sortGenres(gs []model.Genre) {
	sort.Slice(gs, func(i, j int) bool {
		if gs[i].Name != gs[j].Name {
			return gs[i].Name < gs[j].Name
		}
		return gs[i].ID < gs[j].ID
	})
}

// ----- movies -----

func (s *Store) ListMovies(_ context.Context, q model.MovieQuery) ([]model.Movie, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	var matched []model.Movie
	for id, m := range s.movies {
		if q.GenreID != 0 && !containsID(s.links[id], q.GenreID) {
			continue
		}
		if q.Year != 0 && (m.Year == nil || *m.Year != q.Year) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(m.Title), needle) &&
			!strings.Contains(strings.ToLower(m.OriginalTitle), needle) &&
			!strings.Contains(strings.ToLower(m.Description), needle) {
			continue
		}
		matched = append(matched, s.hydrate(m))
	}
	sortMovies(matched, q.Ordering)

	total := len(matched)
	start := min(max(q.Offset(), 0), total)
	end := min(start+max(q.PageSize, 0), total)
	page := append([]model.Movie{}, matched[start:end]...)
	return page, total, nil
}

func (s *Store) GetMovie(_ context.Context, id uint64) (model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movies[id]
	if !ok {
		return model.Movie{}, repository.ErrNotFound
	}
	return s.hydrate(m), nil
}

func (s *Store) MovieExists(_ context.Context, id uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.movies[id]
	return ok, nil
}

func (s *Store) KinopoiskIDExists(_ context.Context, kinopoiskID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.movies {
		if m.KinopoiskID == kinopoiskID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateMovie(_ context.Context, m *model.Movie) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kinopoiskTaken(m.KinopoiskID, 0) {
		return 0, repository.ErrDuplicateExternalID
	}
	ids, err := s.checkGenres(m.GenreIDs())
	if err != nil {
		return 0, err
	}
	row := copyMovie(*m)
	row.ID = s.id("movies")
	row.CreatedAt = s.now()
	row.UpdatedAt = row.CreatedAt
	row.Genres = nil
	s.movies[row.ID] = row
	s.links[row.ID] = ids
	return row.ID, nil
}

func (s *Store) UpdateMovie(_ context.Context, m *model.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.movies[m.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.kinopoiskTaken(m.KinopoiskID, m.ID) {
		return repository.ErrDuplicateExternalID
	}
	ids, err := s.checkGenres(m.GenreIDs())
	if err != nil {
		return err
	}
	row := copyMovie(*m)
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = s.now()
	row.Genres = nil
	s.movies[m.ID] = row
	s.links[m.ID] = ids
	return nil
}

func (s *Store) DeleteMovie(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.movies, id)
	delete(s.links, id)
	for fid, f := range s.favorites {
		if f.MovieID == id {
			delete(s.favorites, fid)
		}
	}
	for cid, c := range s.comments {
		if c.MovieID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *Store) kinopoiskTaken(kinopoiskID int64, exceptID uint64) bool {
	for id, m := range s.movies {
		if id != exceptID && m.KinopoiskID == kinopoiskID {
			return true
		}
	}
	return false
}

func (s *Store) checkGenres(ids []uint64) ([]uint64, error) {
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := s.genres[id]; !ok {
			return nil, repository.ErrNotFound
		}
		if !containsID(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Store) hydrate(m model.Movie) model.Movie {
	out := copyMovie(m)
	out.Genres = s.genresByIDs(s.links[m.ID])
	return out
}

func copyMovie(m model.Movie) model.Movie {
	out := m
	out.Countries = append([]string{}, m.Countries...)
	if m.Year != nil {
		y := *m.Year
		out.Year = &y
	}
	if m.Rating != nil {
		r := *m.Rating
		out.Rating = &r
	}
	if m.Duration != nil {
		d := *m.Duration
		out.Duration = &d
	}
	return out
}

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// sortMovies orders like MySQL: NULL is the smallest value, so it comes
// first ascending and last descending. Ties break by id ascending.
func sortMovies(ms []model.Movie, ordering string) {
	if !model.ValidOrdering(ordering) {
		ordering = model.DefaultOrdering
	}
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")

	cmp := func(a, b model.Movie) int {
		switch field {
		case "rating":
			return compareNullable(a.Rating, b.Rating)
		case "year":
			return compareNullable(a.Year, b.Year)
		default:
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	}
	sort.SliceStable(ms, func(i, j int) bool {
		c := cmp(ms[i], ms[j])
		if desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return ms[i].ID < ms[j].ID
	})
}

func compareNullable[T int | float64](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// ----- favorites -----

func (s *Store) InsertFavorite(_ context.Context, userID, movieID uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[movieID]; !ok {
		return 0, repository.ErrNotFound
	}
	if _, ok := s.users[userID]; !ok {
		return 0, repository.ErrNotFound
	}
	for _, f := range s.favorites {
		if f.UserID == userID && f.MovieID == movieID {
			return 0, repository.ErrFavoriteExists
		}
	}
	f := model.Favorite{ID: s.id("favorites"), UserID: userID, MovieID: movieID, AddedAt: s.now()}
	s.favorites[f.ID] = f
	return f.ID, nil
}

func (s *Store) GetFavorite(_ context.Context, userID, movieID uint64) (model.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.favorites {
		if f.UserID == userID && f.MovieID == movieID {
			return f, nil
		}
	}
	return model.Favorite{}, repository.ErrNotFound
}

func (s *Store) IsFavorite(ctx context.Context, userID, movieID uint64) (bool, error) {
	_, err := s.GetFavorite(ctx, userID, movieID)
	return err == nil, nil
}

func (s *Store) DeleteFavorite(_ context.Context, userID, movieID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.favorites {
		if f.UserID == userID && f.MovieID == movieID {
			delete(s.favorites, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *Store) ListFavorites(_ context.Context, userID uint64) ([]model.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Favorite{}
	for _, f := range s.favorites {
		if f.UserID != userID {
			continue
		}
		if m, ok := s.movies[f.MovieID]; ok {
			h := s.hydrate(m)
			f.Movie = &h
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Favorites returns the number of favorite rows; used by tests.
func (s *Store) Favorites() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.favorites)
}

// ----- comments -----

func (s *Store) withAuthor(c model.Comment) model.Comment {
	if u, ok := s.users[c.UserID]; ok {
		c.Username = u.Username
		c.UserAvatar = u.Profile.Avatar
	}
	return c
}

func (s *Store) ListComments(_ context.Context, movieID uint64) ([]model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Comment{}
	for _, c := range s.comments {
		if c.MovieID == movieID {
			out = append(out, s.withAuthor(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetComment(_ context.Context, id uint64) (model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return model.Comment{}, repository.ErrNotFound
	}
	return s.withAuthor(c), nil
}

func (s *Store) CreateComment(_ context.Context, c *model.Comment) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[c.MovieID]; !ok {
		return 0, repository.ErrNotFound
	}
	if _, ok := s.users[c.UserID]; !ok {
		return 0, repository.ErrNotFound
	}
	row := model.Comment{
		ID:      s.id("comments"),
		UserID:  c.UserID,
		MovieID: c.MovieID,
		Text:    c.Text,
	}
	row.CreatedAt = s.now()
	row.UpdatedAt = row.CreatedAt
	s.comments[row.ID] = row
	return row.ID, nil
}

func (s *Store) UpdateCommentText(_ context.Context, id uint64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Text = text
	c.UpdatedAt = s.now()
	s.comments[id] = c
	return nil
}

func (s *Store) DeleteComment(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}
