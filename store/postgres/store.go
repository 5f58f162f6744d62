package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"
	"gorm.io/gorm"
)

// === Users ===

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	row := newUserRow(u)
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) userBy(ctx context.Context, query string, arg string) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where(query, arg).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	u := row.model()
	return &u, nil
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	return s.userBy(ctx, "id = ?", id)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userBy(ctx, "username = ?", username)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userBy(ctx, "email = ?", email)
}

func (s *Store) ListUsers(ctx context.Context, f store.UserFilter) ([]models.User, int64, error) {
	q := s.db.WithContext(ctx).Model(&userRow{})
	if f.Search != "" {
		q = q.Where("username ILIKE ?", containsPattern(f.Search))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []userRow
	if err := paginate(q.Order("username"), f.Page).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	users := make([]models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.model())
	}
	return users, total, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *models.User) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", u.ID).Updates(map[string]any{
		"username":          u.Username,
		"email":             u.Email,
		"first_name":        u.FirstName,
		"last_name":         u.LastName,
		"bio":               u.Bio,
		"role":              string(u.Role),
		"is_staff":          u.IsStaff,
		"is_active":         u.IsActive,
		"confirmation_code": u.ConfirmationCode,
		"code_issued_at":    u.CodeIssuedAt,
	})
	return affected(res)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&userRow{}, "id = ?", id))
}

// === Terms ===

func (s *Store) CreateTerm(ctx context.Context, t *models.Term) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	row := termRow{ID: t.ID, Kind: string(t.Kind), Name: t.Name, Slug: t.Slug}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) TermBySlug(ctx context.Context, kind models.TermKind, slug string) (*models.Term, error) {
	var row termRow
	if err := s.db.WithContext(ctx).Where("kind = ? AND slug = ?", kind, slug).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	t := row.model()
	return &t, nil
}

func (s *Store) ListTerms(ctx context.Context, f store.TermFilter) ([]models.Term, int64, error) {
	q := s.db.WithContext(ctx).Model(&termRow{}).Where("kind = ?", f.Kind)
	if f.Search != "" {
		q = q.Where("name = ?", f.Search)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []termRow
	if err := paginate(q.Order("name, slug"), f.Page).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	terms := make([]models.Term, 0, len(rows))
	for _, r := range rows {
		terms = append(terms, r.model())
	}
	return terms, total, nil
}

// DeleteTerm relies on the titles and title_genres foreign keys to detach titles.
func (s *Store) DeleteTerm(ctx context.Context, kind models.TermKind, slug string) error {
	return affected(s.db.WithContext(ctx).Delete(&termRow{}, "kind = ? AND slug = ?", kind, slug))
}

// === Titles ===

func (s *Store) CreateTitle(ctx context.Context, t *models.Title) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := titleRow{ID: t.ID, Name: t.Name, Year: t.Year, Description: t.Description, CategoryID: t.CategoryID}
		if err := tx.Create(&row).Error; err != nil {
			return translate(err)
		}
		return replaceGenres(tx, t.ID, t.GenreIDs)
	})
}

func replaceGenres(tx *gorm.DB, titleID string, genreIDs []string) error {
	if err := tx.Delete(&titleGenreRow{}, "title_id = ?", titleID).Error; err != nil {
		return err
	}
	if len(genreIDs) == 0 {
		return nil
	}
	rows := make([]titleGenreRow, 0, len(genreIDs))
	seen := make(map[string]bool, len(genreIDs))
	for _, id := range genreIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, titleGenreRow{TitleID: titleID, GenreID: id})
	}
	return translate(tx.Create(&rows).Error)
}

func (s *Store) TitleByID(ctx context.Context, id string) (*models.Title, error) {
	titles, err := s.queryTitles(ctx, s.ratedTitles(ctx).Where("t.id = ?", id), "", store.Page{})
	if err != nil {
		return nil, err
	}
	if len(titles) == 0 {
		return nil, store.ErrNotFound
	}
	return &titles[0], nil
}

func (s *Store) ListTitles(ctx context.Context, f store.TitleFilter) ([]models.Title, int64, error) {
	filter := func(q *gorm.DB) *gorm.DB {
		if f.Name != "" {
			q = q.Where("t.name ILIKE ?", containsPattern(f.Name))
		}
		if f.Year != nil {
			q = q.Where("t.year = ?", *f.Year)
		}
		if f.Category != "" {
			q = q.Where("t.category_id IN (SELECT id FROM terms WHERE kind = ? AND slug = ?)", models.KindCategory, f.Category)
		}
		if f.Genre != "" {
			q = q.Where(`EXISTS (SELECT 1 FROM title_genres tg JOIN terms g ON g.id = tg.genre_id
				WHERE tg.title_id = t.id AND g.kind = ? AND g.slug = ?)`, models.KindGenre, f.Genre)
		}
		return q
	}
	var total int64
	if err := filter(s.db.WithContext(ctx).Table("titles AS t")).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	titles, err := s.queryTitles(ctx, filter(s.ratedTitles(ctx)), f.Ordering, f.Page)
	if err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

// ratedTitles selects titles with the average score of their reviews.
func (s *Store) ratedTitles(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("titles AS t").
		Select("t.id, t.name, t.year, t.description, t.category_id, AVG(r.score)::float8 AS rating").
		Joins("LEFT JOIN reviews r ON r.title_id = t.id").
		Group("t.id")
}

func (s *Store) queryTitles(ctx context.Context, q *gorm.DB, ordering string, p store.Page) ([]models.Title, error) {
	switch ordering {
	case store.OrderRatingAsc:
		q = q.Order("rating ASC NULLS LAST")
	case store.OrderRatingDesc:
		q = q.Order("rating DESC NULLS LAST")
	}
	var rows []ratedTitle
	if err := paginate(q.Order("t.name, t.id"), p).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []models.Title{}, nil
	}

	ids := make([]string, 0, len(rows))
	var categoryIDs []string
	for _, r := range rows {
		ids = append(ids, r.ID)
		if r.CategoryID != nil {
			categoryIDs = append(categoryIDs, *r.CategoryID)
		}
	}
	categories := map[string]models.Term{}
	if len(categoryIDs) > 0 {
		var terms []termRow
		if err := s.db.WithContext(ctx).Where("id IN ?", categoryIDs).Find(&terms).Error; err != nil {
			return nil, err
		}
		for _, t := range terms {
			categories[t.ID] = t.model()
		}
	}
	genres := map[string][]models.Term{}
	var genreRows []struct {
		TitleID string
		ID      string
		Kind    string
		Name    string
		Slug    string
	}
	if err := s.db.WithContext(ctx).
		Table("title_genres AS tg").
		Select("tg.title_id, g.id, g.kind, g.name, g.slug").
		Joins("JOIN terms g ON g.id = tg.genre_id").
		Where("tg.title_id IN ?", ids).
		Order("g.name, g.slug").
		Scan(&genreRows).Error; err != nil {
		return nil, err
	}
	for _, g := range genreRows {
		genres[g.TitleID] = append(genres[g.TitleID], models.Term{ID: g.ID, Kind: models.TermKind(g.Kind), Name: g.Name, Slug: g.Slug})
	}

	titles := make([]models.Title, 0, len(rows))
	for _, r := range rows {
		t := models.Title{
			ID:          r.ID,
			Name:        r.Name,
			Year:        r.Year,
			Description: r.Description,
			CategoryID:  r.CategoryID,
			Rating:      r.Rating,
			Genres:      []models.Term{},
		}
		if r.CategoryID != nil {
			if c, ok := categories[*r.CategoryID]; ok {
				t.Category = &c
			}
		}
		for _, g := range genres[r.ID] {
			t.GenreIDs = append(t.GenreIDs, g.ID)
			t.Genres = append(t.Genres, g)
		}
		titles = append(titles, t)
	}
	return titles, nil
}

func (s *Store) UpdateTitle(ctx context.Context, t *models.Title) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&titleRow{}).Where("id = ?", t.ID).Updates(map[string]any{
			"name":        t.Name,
			"year":        t.Year,
			"description": t.Description,
			"category_id": t.CategoryID,
		})
		if err := affected(res); err != nil {
			return err
		}
		return replaceGenres(tx, t.ID, t.GenreIDs)
	})
}

func (s *Store) DeleteTitle(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&titleRow{}, "id = ?", id))
}

// === Reviews ===

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PubDate.IsZero() {
		r.PubDate = time.Now().UTC()
	}
	row := reviewRow{ID: r.ID, TitleID: r.TitleID, AuthorID: r.AuthorID, Text: r.Text, Score: r.Score, PubDate: r.PubDate}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) reviews(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("reviews AS r").
		Select("r.id, r.title_id, r.author_id, u.username AS author, r.text, r.score, r.pub_date").
		Joins("JOIN users u ON u.id = r.author_id")
}

func (s *Store) ReviewByID(ctx context.Context, titleID, id string) (*models.Review, error) {
	var rows []reviewView
	if err := s.reviews(ctx).Where("r.id = ? AND r.title_id = ?", id, titleID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	r := rows[0].model()
	return &r, nil
}

func (s *Store) ListReviews(ctx context.Context, titleID string, p store.Page) ([]models.Review, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&reviewRow{}).Where("title_id = ?", titleID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []reviewView
	q := s.reviews(ctx).Where("r.title_id = ?", titleID).Order("r.pub_date DESC, r.id")
	if err := paginate(q, p).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	reviews := make([]models.Review, 0, len(rows))
	for _, r := range rows {
		reviews = append(reviews, r.model())
	}
	return reviews, total, nil
}

func (s *Store) UpdateReview(ctx context.Context, r *models.Review) error {
	res := s.db.WithContext(ctx).Model(&reviewRow{}).Where("id = ?", r.ID).Updates(map[string]any{
		"text":  r.Text,
		"score": r.Score,
	})
	return affected(res)
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&reviewRow{}, "id = ?", id))
}

// === Comments ===

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.PubDate.IsZero() {
		c.PubDate = time.Now().UTC()
	}
	row := commentRow{ID: c.ID, ReviewID: c.ReviewID, AuthorID: c.AuthorID, Text: c.Text, PubDate: c.PubDate}
	return translate(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) comments(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("comments AS c").
		Select("c.id, c.review_id, c.author_id, u.username AS author, c.text, c.pub_date").
		Joins("JOIN users u ON u.id = c.author_id")
}

func (s *Store) CommentByID(ctx context.Context, reviewID, id string) (*models.Comment, error) {
	var rows []commentView
	if err := s.comments(ctx).Where("c.id = ? AND c.review_id = ?", id, reviewID).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	c := rows[0].model()
	return &c, nil
}

func (s *Store) ListComments(ctx context.Context, reviewID string, p store.Page) ([]models.Comment, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&commentRow{}).Where("review_id = ?", reviewID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []commentView
	q := s.comments(ctx).Where("c.review_id = ?", reviewID).Order("c.pub_date DESC, c.id")
	if err := paginate(q, p).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	comments := make([]models.Comment, 0, len(rows))
	for _, c := range rows {
		comments = append(comments, c.model())
	}
	return comments, total, nil
}

func (s *Store) UpdateComment(ctx context.Context, c *models.Comment) error {
	res := s.db.WithContext(ctx).Model(&commentRow{}).Where("id = ?", c.ID).Update("text", c.Text)
	return affected(res)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Delete(&commentRow{}, "id = ?", id))
}
