package handler

import (
	"time"

	"github.com/wanex63/kinopoisk/internal/model"
	"github.com/wanex63/kinopoisk/internal/service"
)

// ----- requests -----

type registerReq struct {
	Username   string `json:"username" validate:"required,max=150"`
	Email      string `json:"email" validate:"omitempty,email,max=254"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"first_name" validate:"max=150"`
	LastName   string `json:"last_name" validate:"max=150"`
	Bio        string `json:"bio"`
	Work       string `json:"work" validate:"max=255"`
	Education  string `json:"education" validate:"max=255"`
	Profession string `json:"profession" validate:"max=255"`
	City       string `json:"city" validate:"max=255"`
	Avatar     string `json:"avatar" validate:"max=500"`
}

func (r registerReq) input() service.RegisterInput {
	return service.RegisterInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Profile: model.Profile{
			FirstName:  r.FirstName,
			LastName:   r.LastName,
			Bio:        r.Bio,
			Work:       r.Work,
			Education:  r.Education,
			Profession: r.Profession,
			City:       r.City,
			Avatar:     r.Avatar,
		},
	}
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	Refresh string `json:"refresh" validate:"required"`
}

// profileReq is the /auth/me update body. Username and email are not
// accepted here.
type profileReq struct {
	FirstName  *string `json:"first_name" validate:"omitempty,max=150"`
	LastName   *string `json:"last_name" validate:"omitempty,max=150"`
	Bio        *string `json:"bio"`
	Work       *string `json:"work" validate:"omitempty,max=255"`
	Education  *string `json:"education" validate:"omitempty,max=255"`
	Profession *string `json:"profession" validate:"omitempty,max=255"`
	City       *string `json:"city" validate:"omitempty,max=255"`
	Avatar     *string `json:"avatar" validate:"omitempty,max=500"`
}

func (r profileReq) patch() model.ProfilePatch {
	return model.ProfilePatch{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Bio:        r.Bio,
		Work:       r.Work,
		Education:  r.Education,
		Profession: r.Profession,
		City:       r.City,
		Avatar:     r.Avatar,
	}
}

type movieReq struct {
	KinopoiskID   *int64   `json:"kinopoisk_id" validate:"omitempty,gte=1"`
	Title         *string  `json:"title" validate:"omitempty,max=255"`
	OriginalTitle *string  `json:"original_title" validate:"omitempty,max=255"`
	Description   *string  `json:"description"`
	Year          *int     `json:"year" validate:"omitempty,gte=1888,lte=2100"`
	Rating        *float64 `json:"rating" validate:"omitempty,gte=0,lte=10"`
	PosterURL     *string  `json:"poster_url" validate:"omitempty,max=500"`
	Duration      *int     `json:"duration" validate:"omitempty,gte=0"`
	Countries     []string `json:"countries" validate:"omitempty,dive,max=100"`
	GenreIDs      []uint64 `json:"genre_ids" validate:"omitempty,dive,gte=1"`
}

func (r movieReq) input() service.MovieInput {
	return service.MovieInput{
		KinopoiskID:   r.KinopoiskID,
		Title:         r.Title,
		OriginalTitle: r.OriginalTitle,
		Description:   r.Description,
		Year:          r.Year,
		Rating:        r.Rating,
		PosterURL:     r.PosterURL,
		Duration:      r.Duration,
		Countries:     r.Countries,
		GenreIDs:      r.GenreIDs,
	}
}

type genreReq struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"max=100"`
}

type commentReq struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// ----- responses -----

type userResp struct {
	ID         uint64 `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Avatar     string `json:"avatar"`
	Bio        string `json:"bio"`
	Work       string `json:"work"`
	Education  string `json:"education"`
	Profession string `json:"profession"`
	City       string `json:"city"`
	IsAdmin    bool   `json:"is_admin"`
}

func toUser(u model.User) userResp {
	return userResp{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.Profile.FirstName,
		LastName:   u.Profile.LastName,
		Avatar:     u.Profile.Avatar,
		Bio:        u.Profile.Bio,
		Work:       u.Profile.Work,
		Education:  u.Profile.Education,
		Profession: u.Profile.Profession,
		City:       u.Profile.City,
		IsAdmin:    u.IsAdmin,
	}
}

// loginResp carries the token pair and the user twice: nested under
// "user" and flattened into the top level.
type loginResp struct {
	userResp
	Access  string   `json:"access"`
	Refresh string   `json:"refresh"`
	User    userResp `json:"user"`
}

type accessResp struct {
	Access string `json:"access"`
}

type genreResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func toGenres(gs []model.Genre) []genreResp {
	out := make([]genreResp, 0, len(gs))
	for _, g := range gs {
		out = append(out, genreResp{ID: g.ID, Name: g.Name, Slug: g.Slug})
	}
	return out
}

type movieResp struct {
	ID            uint64      `json:"id"`
	KinopoiskID   int64       `json:"kinopoisk_id"`
	Title         string      `json:"title"`
	OriginalTitle string      `json:"original_title"`
	Description   string      `json:"description"`
	Year          *int        `json:"year"`
	Rating        *float64    `json:"rating"`
	PosterURL     string      `json:"poster_url"`
	Duration      *int        `json:"duration"`
	Countries     []string    `json:"countries"`
	Genres        []genreResp `json:"genres"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toMovie(m model.Movie) movieResp {
	countries := m.Countries
	if countries == nil {
		countries = []string{}
	}
	return movieResp{
		ID:            m.ID,
		KinopoiskID:   m.KinopoiskID,
		Title:         m.Title,
		OriginalTitle: m.OriginalTitle,
		Description:   m.Description,
		Year:          m.Year,
		Rating:        m.Rating,
		PosterURL:     m.PosterURL,
		Duration:      m.Duration,
		Countries:     countries,
		Genres:        toGenres(m.Genres),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

type movieDetailResp struct {
	movieResp
	IsFavorite bool `json:"is_favorite"`
}

type moviePageResp struct {
	Items    []movieResp `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func toMoviePage(p service.MoviePage) moviePageResp {
	items := make([]movieResp, 0, len(p.Items))
	for _, m := range p.Items {
		items = append(items, toMovie(m))
	}
	return moviePageResp{Items: items, Total: p.Total, Page: p.Page, PageSize: p.PageSize}
}

type favoriteResp struct {
	ID      uint64     `json:"id"`
	MovieID uint64     `json:"movie_id"`
	AddedAt time.Time  `json:"added_at"`
	Movie   *movieResp `json:"movie,omitempty"`
}

func toFavorite(f model.Favorite) favoriteResp {
	out := favoriteResp{ID: f.ID, MovieID: f.MovieID, AddedAt: f.AddedAt}
	if f.Movie != nil {
		m := toMovie(*f.Movie)
		out.Movie = &m
	}
	return out
}

type commentResp struct {
	ID         uint64    `json:"id"`
	MovieID    uint64    `json:"movie_id"`
	UserID     uint64    `json:"user_id"`
	Username   string    `json:"username"`
	UserAvatar string    `json:"user_avatar"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toComment(cm model.Comment) commentResp {
	return commentResp{
		ID:         cm.ID,
		MovieID:    cm.MovieID,
		UserID:     cm.UserID,
		Username:   cm.Username,
		UserAvatar: cm.UserAvatar,
		Text:       cm.Text,
		CreatedAt:  cm.CreatedAt,
		UpdatedAt:  cm.UpdatedAt,
	}
}
