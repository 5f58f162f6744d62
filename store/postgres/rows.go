package postgres

import (
	"time"

	"github.com/kevinaaaquil/yamdb/models"
)

// Unique index names; a violation is attributed to a field by constraint name.
const (
	idxUsername = "uniq_username"
	idxEmail    = "uniq_email"
	idxTermSlug = "uniq_kind_slug"
	idxReview   = "uniq_title_author"
)

// GORM models used for persistence.
type userRow struct {
	ID               string `gorm:"primaryKey"`
	Username         string `gorm:"size:150;not null;uniqueIndex:uniq_username"`
	Email            string `gorm:"size:254;not null;uniqueIndex:uniq_email"`
	FirstName        string `gorm:"size:150"`
	LastName         string `gorm:"size:150"`
	Bio              string `gorm:"type:text"`
	Role             string `gorm:"not null"`
	IsStaff          bool   `gorm:"not null"`
	IsActive         bool   `gorm:"not null"`
	ConfirmationCode string
	CodeIssuedAt     *time.Time
	DateJoined       time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

func newUserRow(u *models.User) userRow {
	return userRow{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Bio:              u.Bio,
		Role:             string(u.Role),
		IsStaff:          u.IsStaff,
		IsActive:         u.IsActive,
		ConfirmationCode: u.ConfirmationCode,
		CodeIssuedAt:     u.CodeIssuedAt,
		DateJoined:       u.DateJoined,
	}
}

func (r userRow) model() models.User {
	return models.User{
		ID:               r.ID,
		Username:         r.Username,
		Email:            r.Email,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Bio:              r.Bio,
		Role:             models.Role(r.Role),
		IsStaff:          r.IsStaff,
		IsActive:         r.IsActive,
		ConfirmationCode: r.ConfirmationCode,
		CodeIssuedAt:     r.CodeIssuedAt,
		DateJoined:       r.DateJoined,
	}
}

type termRow struct {
	ID   string `gorm:"primaryKey"`
	Kind string `gorm:"not null;uniqueIndex:uniq_kind_slug,priority:1"`
	Name string `gorm:"size:256;not null;index"`
	Slug string `gorm:"size:50;not null;uniqueIndex:uniq_kind_slug,priority:2"`
}

func (termRow) TableName() string { return "terms" }

func (r termRow) model() models.Term {
	return models.Term{ID: r.ID, Kind: models.TermKind(r.Kind), Name: r.Name, Slug: r.Slug}
}

type titleRow struct {
	ID          string  `gorm:"primaryKey"`
	Name        string  `gorm:"size:256;not null;index"`
	Year        int     `gorm:"not null;index"`
	Description *string `gorm:"type:text"`
	CategoryID  *string `gorm:"index"`
}

func (titleRow) TableName() string { return "titles" }

// ratedTitle is a titles row with its review average attached.
type ratedTitle struct {
	ID          string
	Name        string
	Year        int
	Description *string
	CategoryID  *string
	Rating      *float64
}

type titleGenreRow struct {
	TitleID string `gorm:"primaryKey"`
	GenreID string `gorm:"primaryKey;index"`
}

func (titleGenreRow) TableName() string { return "title_genres" }

type reviewRow struct {
	ID       string    `gorm:"primaryKey"`
	TitleID  string    `gorm:"not null;uniqueIndex:uniq_title_author,priority:1"`
	AuthorID string    `gorm:"not null;uniqueIndex:uniq_title_author,priority:2"`
	Text     string    `gorm:"type:text;not null"`
	Score    int       `gorm:"not null;check:chk_reviews_score,score >= 1 AND score <= 10"`
	PubDate  time.Time `gorm:"not null;index"`
}

func (reviewRow) TableName() string { return "reviews" }

// reviewView is a reviews row joined with its author's username.
type reviewView struct {
	ID       string
	TitleID  string
	AuthorID string
	Author   string
	Text     string
	Score    int
	PubDate  time.Time
}

func (v reviewView) model() models.Review {
	return models.Review{
		ID:       v.ID,
		TitleID:  v.TitleID,
		AuthorID: v.AuthorID,
		Author:   v.Author,
		Text:     v.Text,
		Score:    v.Score,
		PubDate:  v.PubDate,
	}
}

type commentRow struct {
	ID       string    `gorm:"primaryKey"`
	ReviewID string    `gorm:"not null;index"`
	AuthorID string    `gorm:"not null;index"`
	Text     string    `gorm:"type:text;not null"`
	PubDate  time.Time `gorm:"not null;index"`
}

func (commentRow) TableName() string { return "comments" }

type commentView struct {
	ID       string
	ReviewID string
	AuthorID string
	Author   string
	Text     string
	PubDate  time.Time
}

func (v commentView) model() models.Comment {
	return models.Comment{
		ID:       v.ID,
		ReviewID: v.ReviewID,
		AuthorID: v.AuthorID,
		Author:   v.Author,
		Text:     v.Text,
		PubDate:  v.PubDate,
	}
}
