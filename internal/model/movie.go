package model

import (
	"math"
	"time"
)

// Genre represents a row in the `genres` table. Name and Slug are both
// unique; the slug is derived from the name when not supplied.
type Genre struct {
	ID   uint64 // genres.id
	Name string // genres.name
	Slug string // genres.slug
}

// Movie represents a catalog entry. KinopoiskID is the identifier of
// the film in the upstream catalog and is unique across all movies; it
// is what ingestion deduplicates on.
//
// Fields:
//  ID            – primary key identifier.
//  KinopoiskID   – external catalog id (unique).
//  Title         – localized title.
//  OriginalTitle – title in the original language, may be empty.
//  Description   – synopsis, may be empty.
//  Year          – release year in [1888, 2100], nil when unknown.
//  Rating        – rating in [0, 10], nil when unknown.
//  PosterURL     – poster image reference.
//  Duration      – running time in minutes, nil when unknown.
//  Countries     – production countries.
//  Genres        – linked genres ordered by name.
type Movie struct {
	ID            uint64
	KinopoiskID   int64
	Title         string
	OriginalTitle string
	Description   string
	Year          *int
	Rating        *float64
	PosterURL     string
	Duration      *int
	Countries     []string
	Genres        []Genre
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GenreIDs returns the ids of the linked genres.
func (m Movie) GenreIDs() []uint64 {
	ids := make([]uint64, 0, len(m.Genres))
	for _, g := range m.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}

// Ordering values accepted by the movie list.
const (
	OrderRatingDesc = "-rating"
	OrderRatingAsc  = "rating"
	OrderYearDesc   = "-year"
	OrderYearAsc    = "year"
	OrderTitleDesc  = "-title"
	OrderTitleAsc   = "title"
)

// DefaultOrdering is applied when the client sends none or an unknown value.
const DefaultOrdering = OrderRatingDesc

// ValidOrdering reports whether o is one of the supported orderings.
func ValidOrdering(o string) bool {
	switch o {
	case OrderRatingDesc, OrderRatingAsc, OrderYearDesc, OrderYearAsc, OrderTitleDesc, OrderTitleAsc:
		return true
	}
	return false
}

// MovieQuery defines filters, search and pagination for listing movies.
// Zero values mean "no filter".
type MovieQuery struct {
	GenreID  uint64
	Year     int
	Search   string
	Ordering string
	Page     int
	PageSize int
}

// Offset returns the row offset of the first item on the page,
// saturating at math.MaxInt.
func (q MovieQuery) Offset() int {
	if q.Page < 1 || q.PageSize < 1 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PageSize
}

// Favorite is a row of the `favorites` join table. (UserID, MovieID)
// is unique. Movie is populated when listing.
type Favorite struct {
	ID      uint64
	UserID  uint64
	MovieID uint64
	AddedAt time.Time
	Movie   *Movie
}

// Comment is a user's remark on a movie. Username and UserAvatar are
// denormalized from the author for display and are not stored.
type Comment struct {
	ID         uint64
	UserID     uint64
	MovieID    uint64
	Text       string
	Username   string
	UserAvatar string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
