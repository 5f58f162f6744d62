package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type fixture struct {
	store  *Store
	alice  *models.User
	bob    *models.User
	movies *models.Term
	drama  *models.Term
	comedy *models.Term
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := New()
	ctx := context.Background()
	f := fixture{store: s}

	f.alice = &models.User{Username: "alice", Email: "alice@example.com", Role: models.RoleUser, IsActive: true}
	f.bob = &models.User{Username: "bob", Email: "bob@example.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, s.CreateUser(ctx, f.alice))
	require.NoError(t, s.CreateUser(ctx, f.bob))

	f.movies = &models.Term{Kind: models.KindCategory, Name: "Movies", Slug: "movies"}
	f.drama = &models.Term{Kind: models.KindGenre, Name: "Drama", Slug: "drama"}
	f.comedy = &models.Term{Kind: models.KindGenre, Name: "Comedy", Slug: "comedy"}
	for _, term := range []*models.Term{f.movies, f.drama, f.comedy} {
		require.NoError(t, s.CreateTerm(ctx, term))
	}
	return f
}

func (f fixture) title(t *testing.T, name string, year int, genres ...*models.Term) *models.Title {
	t.Helper()
	title := &models.Title{Name: name, Year: year, CategoryID: &f.movies.ID}
	for _, g := range genres {
		title.GenreIDs = append(title.GenreIDs, g.ID)
	}
	require.NoError(t, f.store.CreateTitle(context.Background(), title))
	return title
}

func (f fixture) review(t *testing.T, title *models.Title, author *models.User, score int) *models.Review {
	t.Helper()
	r := &models.Review{TitleID: title.ID, AuthorID: author.ID, Text: "text", Score: score}
	require.NoError(t, f.store.CreateReview(context.Background(), r))
	return r
}

func TestStore_UserUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.Equal(t, "username", store.DuplicateField(err))

	err = f.store.CreateUser(ctx, &models.User{Username: "carol", Email: "bob@example.com"})
	assert.Equal(t, "email", store.DuplicateField(err))

	f.bob.Username = "alice"
	err = f.store.UpdateUser(ctx, f.bob)
	assert.Equal(t, "username", store.DuplicateField(err))
}

func TestStore_UserLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.store.UserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, f.bob.ID, u.ID)

	u, err = f.store.UserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = f.store.UserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_ListUsers_SearchAndPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.CreateUser(ctx, &models.User{Username: "Alicia", Email: "alicia@example.com"}))

	users, total, err := f.store.ListUsers(ctx, store.UserFilter{Search: "ali"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 2)

	users, total, err = f.store.ListUsers(ctx, store.UserFilter{Page: store.Page{Offset: 1, Limit: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestWindow_OutOfRangeOffsets(t *testing.T) {
	items := []int{1, 2, 3}
	assert.Empty(t, window(items, store.Page{Offset: -8, Limit: 2}))
	assert.Empty(t, window(items, store.Page{Offset: 3, Limit: 2}))
	assert.Equal(t, []int{2, 3}, window(items, store.Page{Offset: 1, Limit: math.MaxInt}))
	assert.Equal(t, []int{1, 2, 3}, window(items, store.Page{}))
}

func TestStore_TermSlugUniquePerKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.store.CreateTerm(ctx, &models.Term{Kind: models.KindGenre, Name: "Other", Slug: "drama"})
	assert.Equal(t, "slug", store.DuplicateField(err))

	// the same slug may exist once per kind
	err = f.store.CreateTerm(ctx, &models.Term{Kind: models.KindCategory, Name: "Drama", Slug: "drama"})
	assert.NoError(t, err)
}

func TestStore_ListTerms_ExactSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	terms, total, err := f.store.ListTerms(ctx, store.TermFilter{Kind: models.KindGenre, Search: "Drama"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "drama", terms[0].Slug)

	terms, _, err = f.store.ListTerms(ctx, store.TermFilter{Kind: models.KindGenre, Search: "Dra"})
	require.NoError(t, err)
	assert.Empty(t, terms)
}

func TestStore_DeleteTerm_DetachesTitles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Heat", 1995, f.drama, f.comedy)

	require.NoError(t, f.store.DeleteTerm(ctx, models.KindCategory, "movies"))
	require.NoError(t, f.store.DeleteTerm(ctx, models.KindGenre, "drama"))

	got, err := f.store.TitleByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)
	require.Len(t, got.Genres, 1)
	assert.Equal(t, "comedy", got.Genres[0].Slug)

	assert.ErrorIs(t, f.store.DeleteTerm(ctx, models.KindGenre, "drama"), store.ErrNotFound)
}

func TestStore_TitleRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Heat", 1995)

	got, err := f.store.TitleByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rating)

	f.review(t, title, f.alice, 7)
	f.review(t, title, f.bob, 8)

	got, err = f.store.TitleByID(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 7.5, *got.Rating, 1e-9)
	assert.Equal(t, "Movies", got.Category.Name)
}

func TestStore_ListTitles_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.title(t, "The Godfather", 1972, f.drama)
	f.title(t, "Airplane!", 1980, f.comedy)
	f.title(t, "Godzilla", 1954)

	titles, total, err := f.store.ListTitles(ctx, store.TitleFilter{Name: "god"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "Godzilla", titles[0].Name)

	year := 1980
	titles, _, err = f.store.ListTitles(ctx, store.TitleFilter{Year: &year})
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.Equal(t, "Airplane!", titles[0].Name)

	titles, _, err = f.store.ListTitles(ctx, store.TitleFilter{Genre: "drama", Category: "movies"})
	require.NoError(t, err)
	require.Len(t, titles, 1)
	assert.Equal(t, "The Godfather", titles[0].Name)

	titles, total, err = f.store.ListTitles(ctx, store.TitleFilter{Genre: "unknown"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, titles)
}

func TestStore_ListTitles_RatingOrderPutsUnratedLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low := f.title(t, "Low", 2000)
	high := f.title(t, "High", 2000)
	f.title(t, "Unrated", 2000)
	f.review(t, low, f.alice, 3)
	f.review(t, high, f.alice, 9)

	names := func(ordering string) []string {
		titles, _, err := f.store.ListTitles(ctx, store.TitleFilter{Ordering: ordering})
		require.NoError(t, err)
		out := make([]string, 0, len(titles))
		for _, ti := range titles {
			out = append(out, ti.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Low", "High", "Unrated"}, names(store.OrderRatingAsc))
	assert.Equal(t, []string{"High", "Low", "Unrated"}, names(store.OrderRatingDesc))
	assert.Equal(t, []string{"High", "Low", "Unrated"}, names(""))
}

func TestStore_ReviewConstraints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Heat", 1995)
	f.review(t, title, f.alice, 10)

	err := f.store.CreateReview(ctx, &models.Review{TitleID: title.ID, AuthorID: f.alice.ID, Text: "again", Score: 5})
	assert.Equal(t, "review", store.DuplicateField(err))

	err = f.store.CreateReview(ctx, &models.Review{TitleID: title.ID, AuthorID: f.bob.ID, Text: "x", Score: 11})
	assert.ErrorIs(t, err, store.ErrConstraint)
}

func TestStore_ReviewsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Heat", 1995)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &models.Review{TitleID: title.ID, AuthorID: f.alice.ID, Text: "old", Score: 5, PubDate: base}
	newer := &models.Review{TitleID: title.ID, AuthorID: f.bob.ID, Text: "new", Score: 6, PubDate: base.Add(time.Hour)}
	require.NoError(t, f.store.CreateReview(ctx, older))
	require.NoError(t, f.store.CreateReview(ctx, newer))

	reviews, total, err := f.store.ListReviews(ctx, title.ID, store.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"new", "old"}, []string{reviews[0].Text, reviews[1].Text})
	assert.Equal(t, "bob", reviews[0].Author)

	_, err = f.store.ReviewByID(ctx, "other-title", older.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_AuthorFollowsRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Heat", 1995)
	r := f.review(t, title, f.alice, 5)

	f.alice.Username = "alice2"
	require.NoError(t, f.store.UpdateUser(ctx, f.alice))

	got, err := f.store.ReviewByID(ctx, title.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Author)
}

func TestStore_Cascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	heat := f.title(t, "Heat", 1995)
	alien := f.title(t, "Alien", 1979)

	r1 := f.review(t, heat, f.alice, 5)
	r2 := f.review(t, alien, f.bob, 6)
	c1 := &models.Comment{ReviewID: r1.ID, AuthorID: f.bob.ID, Text: "agree"}
	c2 := &models.Comment{ReviewID: r2.ID, AuthorID: f.alice.ID, Text: "nope"}
	require.NoError(t, f.store.CreateComment(ctx, c1))
	require.NoError(t, f.store.CreateComment(ctx, c2))

	// deleting a title drops its reviews and their comments
	require.NoError(t, f.store.DeleteTitle(ctx, heat.ID))
	_, err := f.store.ReviewByID(ctx, heat.ID, r1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.store.CommentByID(ctx, r1.ID, c1.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// deleting a user drops the comments they wrote on others' reviews
	require.NoError(t, f.store.DeleteUser(ctx, f.alice.ID))
	_, err = f.store.CommentByID(ctx, r2.ID, c2.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.store.ReviewByID(ctx, alien.ID, r2.ID)
	assert.NoError(t, err)

	require.NoError(t, f.store.DeleteReview(ctx, r2.ID))
	assert.ErrorIs(t, f.store.DeleteReview(ctx, r2.ID), store.ErrNotFound)
}

func TestStore_UpdateTitleKeepsResolvedFieldsOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Heat", 1995, f.drama)

	title.Name = "Heat (1995)"
	title.Description = strPtr("crime")
	title.GenreIDs = []string{f.comedy.ID}
	rating := 9.0
	title.Rating = &rating
	require.NoError(t, f.store.UpdateTitle(ctx, title))

	got, err := f.store.TitleByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Equal(t, "Heat (1995)", got.Name)
	assert.Equal(t, "crime", *got.Description)
	assert.Nil(t, got.Rating)
	require.Len(t, got.Genres, 1)
	assert.Equal(t, "comedy", got.Genres[0].Slug)

	assert.ErrorIs(t, f.store.UpdateTitle(ctx, &models.Title{ID: "missing"}), store.ErrNotFound)
}
