// Package memory is an in-process Store used by tests and the "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"
)

// Store keeps every record by value behind a single RWMutex.
type Store struct {
	mu       sync.RWMutex
	users    map[string]models.User
	terms    map[string]models.Term
	titles   map[string]models.Title
	reviews  map[string]models.Review
	comments map[string]models.Comment
	now      func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		terms:    make(map[string]models.Term),
		titles:   make(map[string]models.Title),
		reviews:  make(map[string]models.Review),
		comments: make(map[string]models.Comment),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Close(context.Context) error { return nil }

// window applies a store.Page to an already sorted slice.
func window[T any](items []T, p store.Page) []T {
	if p.Offset < 0 || p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Limit < end-p.Offset {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}

// === Users ===

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUserUnique(u); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = s.now()
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) checkUserUnique(u *models.User) error {
	for id, other := range s.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username {
			return &store.DuplicateError{Field: "username"}
		}
		if other.Email == u.Email {
			return &store.DuplicateError{Field: "email"}
		}
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

func (s *Store) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(ctx context.Context, f store.UserFilter) ([]models.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(f.Search)
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if needle != "" && !strings.Contains(strings.ToLower(u.Username), needle) {
			continue
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return window(users, f.Page), int64(len(users)), nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := s.checkUserUnique(u); err != nil {
		return err
	}
	u.DateJoined = old.DateJoined
	s.users[u.ID] = *u
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	for rid, r := range s.reviews {
		if r.AuthorID == id {
			s.deleteReviewLocked(rid)
		}
	}
	for cid, c := range s.comments {
		if c.AuthorID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.users, id)
	return nil
}

func (s *Store) username(id string) string {
	return s.users[id].Username
}

// === Terms ===

func (s *Store) CreateTerm(ctx context.Context, t *models.Term) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.terms {
		if other.Kind == t.Kind && other.Slug == t.Slug {
			return &store.DuplicateError{Field: "slug"}
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.terms[t.ID] = *t
	return nil
}

func (s *Store) TermBySlug(ctx context.Context, kind models.TermKind, slug string) (*models.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.termBySlugLocked(kind, slug); ok {
		return &t, nil
	}
	return nil, store.ErrNotFound
}

func (s *Store) termBySlugLocked(kind models.TermKind, slug string) (models.Term, bool) {
	for _, t := range s.terms {
		if t.Kind == kind && t.Slug == slug {
			return t, true
		}
	}
	return models.Term{}, false
}

func (s *Store) ListTerms(ctx context.Context, f store.TermFilter) ([]models.Term, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := []models.Term{}
	for _, t := range s.terms {
		if t.Kind != f.Kind || (f.Search != "" && t.Name != f.Search) {
			continue
		}
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Name != terms[j].Name {
			return terms[i].Name < terms[j].Name
		}
		return terms[i].Slug < terms[j].Slug
	})
	return window(terms, f.Page), int64(len(terms)), nil
}

func (s *Store) DeleteTerm(ctx context.Context, kind models.TermKind, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.termBySlugLocked(kind, slug)
	if !ok {
		return store.ErrNotFound
	}
	for id, title := range s.titles {
		switch kind {
		case models.KindCategory:
			if title.CategoryID != nil && *title.CategoryID == t.ID {
				title.CategoryID = nil
			}
		case models.KindGenre:
			kept := make([]string, 0, len(title.GenreIDs))
			for _, g := range title.GenreIDs {
				if g != t.ID {
					kept = append(kept, g)
				}
			}
			title.GenreIDs = kept
		}
		s.titles[id] = title
	}
	delete(s.terms, t.ID)
	return nil
}

// === Titles ===

func (s *Store) CreateTitle(ctx context.Context, t *models.Title) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.titles[t.ID] = stripResolved(*t)
	return nil
}

func stripResolved(t models.Title) models.Title {
	t.GenreIDs = append([]string{}, t.GenreIDs...)
	t.Category = nil
	t.Genres = nil
	t.Rating = nil
	return t
}

func (s *Store) TitleByID(ctx context.Context, id string) (*models.Title, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.titles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	resolved := s.resolveLocked(t)
	return &resolved, nil
}

// resolveLocked fills Category, Genres and Rating on a stored title.
func (s *Store) resolveLocked(t models.Title) models.Title {
	if t.CategoryID != nil {
		if c, ok := s.terms[*t.CategoryID]; ok {
			t.Category = &c
		}
	}
	t.Genres = make([]models.Term, 0, len(t.GenreIDs))
	for _, id := range t.GenreIDs {
		if g, ok := s.terms[id]; ok {
			t.Genres = append(t.Genres, g)
		}
	}
	var sum, n int
	for _, r := range s.reviews {
		if r.TitleID == t.ID {
			sum += r.Score
			n++
		}
	}
	if n > 0 {
		avg := float64(sum) / float64(n)
		t.Rating = &avg
	}
	return t
}

func (s *Store) ListTitles(ctx context.Context, f store.TitleFilter) ([]models.Title, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categoryID, genreID string
	if f.Category != "" {
		c, ok := s.termBySlugLocked(models.KindCategory, f.Category)
		if !ok {
			return []models.Title{}, 0, nil
		}
		categoryID = c.ID
	}
	if f.Genre != "" {
		g, ok := s.termBySlugLocked(models.KindGenre, f.Genre)
		if !ok {
			return []models.Title{}, 0, nil
		}
		genreID = g.ID
	}

	needle := strings.ToLower(f.Name)
	titles := []models.Title{}
	for _, t := range s.titles {
		if needle != "" && !strings.Contains(strings.ToLower(t.Name), needle) {
			continue
		}
		if f.Year != nil && t.Year != *f.Year {
			continue
		}
		if categoryID != "" && (t.CategoryID == nil || *t.CategoryID != categoryID) {
			continue
		}
		if genreID != "" && !contains(t.GenreIDs, genreID) {
			continue
		}
		titles = append(titles, s.resolveLocked(t))
	}
	sortTitles(titles, f.Ordering)
	return window(titles, f.Page), int64(len(titles)), nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// sortTitles orders by name, or by rating with unrated titles last.
func sortTitles(titles []models.Title, ordering string) {
	byName := func(a, b models.Title) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	}
	sort.Slice(titles, func(i, j int) bool {
		a, b := titles[i], titles[j]
		if ordering == store.OrderRatingAsc || ordering == store.OrderRatingDesc {
			switch {
			case a.Rating == nil && b.Rating == nil:
			case a.Rating == nil:
				return false
			case b.Rating == nil:
				return true
			case *a.Rating != *b.Rating:
				if ordering == store.OrderRatingDesc {
					return *a.Rating > *b.Rating
				}
				return *a.Rating < *b.Rating
			}
		}
		return byName(a, b)
	})
}

func (s *Store) UpdateTitle(ctx context.Context, t *models.Title) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.titles[t.ID]; !ok {
		return store.ErrNotFound
	}
	s.titles[t.ID] = stripResolved(*t)
	return nil
}

func (s *Store) DeleteTitle(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.titles[id]; !ok {
		return store.ErrNotFound
	}
	for rid, r := range s.reviews {
		if r.TitleID == id {
			s.deleteReviewLocked(rid)
		}
	}
	delete(s.titles, id)
	return nil
}

// === Reviews ===

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Score < models.MinScore || r.Score > models.MaxScore {
		return store.ErrConstraint
	}
	for _, other := range s.reviews {
		if other.TitleID == r.TitleID && other.AuthorID == r.AuthorID {
			return &store.DuplicateError{Field: "review"}
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PubDate.IsZero() {
		r.PubDate = s.now()
	}
	r.Author = s.username(r.AuthorID)
	s.reviews[r.ID] = *r
	return nil
}

func (s *Store) ReviewByID(ctx context.Context, titleID, id string) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok || r.TitleID != titleID {
		return nil, store.ErrNotFound
	}
	r.Author = s.username(r.AuthorID)
	return &r, nil
}

func (s *Store) ListReviews(ctx context.Context, titleID string, p store.Page) ([]models.Review, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reviews := []models.Review{}
	for _, r := range s.reviews {
		if r.TitleID == titleID {
			r.Author = s.username(r.AuthorID)
			reviews = append(reviews, r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return newerFirst(reviews[i].PubDate, reviews[j].PubDate, reviews[i].ID, reviews[j].ID)
	})
	return window(reviews, p), int64(len(reviews)), nil
}

func newerFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID < bID
}

func (s *Store) UpdateReview(ctx context.Context, r *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.reviews[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	if r.Score < models.MinScore || r.Score > models.MaxScore {
		return store.ErrConstraint
	}
	old.Text = r.Text
	old.Score = r.Score
	s.reviews[r.ID] = old
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return store.ErrNotFound
	}
	s.deleteReviewLocked(id)
	return nil
}

func (s *Store) deleteReviewLocked(id string) {
	for cid, c := range s.comments {
		if c.ReviewID == id {
			delete(s.comments, cid)
		}
	}
	delete(s.reviews, id)
}

// === Comments ===

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[c.ReviewID]; !ok {
		return store.ErrConstraint
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.PubDate.IsZero() {
		c.PubDate = s.now()
	}
	c.Author = s.username(c.AuthorID)
	s.comments[c.ID] = *c
	return nil
}

func (s *Store) CommentByID(ctx context.Context, reviewID, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok || c.ReviewID != reviewID {
		return nil, store.ErrNotFound
	}
	c.Author = s.username(c.AuthorID)
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, reviewID string, p store.Page) ([]models.Comment, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := []models.Comment{}
	for _, c := range s.comments {
		if c.ReviewID == reviewID {
			c.Author = s.username(c.AuthorID)
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return newerFirst(comments[i].PubDate, comments[j].PubDate, comments[i].ID, comments[j].ID)
	})
	return window(comments, p), int64(len(comments)), nil
}

func (s *Store) UpdateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.comments[c.ID]
	if !ok {
		return store.ErrNotFound
	}
	old.Text = c.Text
	s.comments[c.ID] = old
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}
