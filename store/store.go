package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kevinaaaquil/yamdb/models"
)

var (
	// ErrNotFound is returned when a lookup matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate matches every *DuplicateError.
	ErrDuplicate = errors.New("duplicate key")
	// ErrConstraint is returned when the backend rejects a value, e.g. a score outside 1..10.
	ErrConstraint = errors.New("constraint violation")
)

// DuplicateError reports which unique field a write collided on:
// "username", "email", "slug" or "review" (title and author).
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// DuplicateField returns the colliding field of a duplicate error, or "" for other errors.
func DuplicateField(err error) string {
	var de *DuplicateError
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}

// Page selects a window of a listing. A zero Limit returns everything from Offset.
type Page struct {
	Offset int
	Limit  int
}

type UserFilter struct {
	Search string // case-insensitive username substring
	Page   Page
}

type TermFilter struct {
	Kind   models.TermKind
	Search string // exact name
	Page   Page
}

// Title orderings accepted by ListTitles. Titles without reviews sort last either way.
const (
	OrderRatingAsc  = "rating"
	OrderRatingDesc = "-rating"
)

type TitleFilter struct {
	Name     string // case-insensitive substring
	Year     *int
	Genre    string // genre slug
	Category string // category slug
	Ordering string
	Page     Page
}

// Store is the persistence contract the handlers and services depend on.
// Implementations enforce uniqueness of username, email, (kind, slug) and
// (title, author), the review score range, and the cascades described on
// each delete method.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser also removes the user's reviews and comments.
	DeleteUser(ctx context.Context, id string) error

	CreateTerm(ctx context.Context, t *models.Term) error
	TermBySlug(ctx context.Context, kind models.TermKind, slug string) (*models.Term, error)
	ListTerms(ctx context.Context, f TermFilter) ([]models.Term, int64, error)
	// DeleteTerm clears the category of titles in it, or drops the genre from titles carrying it.
	DeleteTerm(ctx context.Context, kind models.TermKind, slug string) error

	CreateTitle(ctx context.Context, t *models.Title) error
	// TitleByID returns the title with Category, Genres and Rating resolved.
	TitleByID(ctx context.Context, id string) (*models.Title, error)
	ListTitles(ctx context.Context, f TitleFilter) ([]models.Title, int64, error)
	UpdateTitle(ctx context.Context, t *models.Title) error
	// DeleteTitle also removes the title's reviews and their comments.
	DeleteTitle(ctx context.Context, id string) error

	CreateReview(ctx context.Context, r *models.Review) error
	ReviewByID(ctx context.Context, titleID, id string) (*models.Review, error)
	ListReviews(ctx context.Context, titleID string, p Page) ([]models.Review, int64, error)
	UpdateReview(ctx context.Context, r *models.Review) error
	// DeleteReview also removes the review's comments.
	DeleteReview(ctx context.Context, id string) error

	CreateComment(ctx context.Context, c *models.Comment) error
	CommentByID(ctx context.Context, reviewID, id string) (*models.Comment, error)
	ListComments(ctx context.Context, reviewID string, p Page) ([]models.Comment, int64, error)
	UpdateComment(ctx context.Context, c *models.Comment) error
	DeleteComment(ctx context.Context, id string) error

	Close(ctx context.Context) error
}
