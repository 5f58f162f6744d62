// Package importer loads the CSV fixture set into a store.
//
// Files are read in dependency order and the integer ids in the CSV are
// mapped to the ids the store assigns. Every row goes through the same
// validation rules as the API; the first bad row aborts the import.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/validation"
)

// Fixture file names, in load order.
const (
	UsersFile      = "users.csv"
	CategoryFile   = "category.csv"
	GenreFile      = "genre.csv"
	GenreTitleFile = "genre_title.csv"
	TitlesFile     = "titles.csv"
	ReviewFile     = "review.csv"
	CommentsFile   = "comments.csv"
)

// Source opens a fixture by name. Missing files must yield an error matching fs.ErrNotExist.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FSSource reads fixtures from a filesystem, e.g. os.DirFS(dir).
type FSSource struct {
	FS fs.FS
}

func (s FSSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return s.FS.Open(name)
}

// Stats counts imported rows per file.
type Stats map[string]int

type Importer struct {
	store  store.Store
	src    Source
	valid  *validation.Validator
	logger *slog.Logger

	users      map[string]string
	categories map[string]string
	genres     map[string]string
	titleGenre map[string][]string
	titles     map[string]string
	reviews    map[string]string
}

func New(st store.Store, src Source, v *validation.Validator) *Importer {
	return &Importer{
		store:      st,
		src:        src,
		valid:      v,
		logger:     slog.Default().With("component", "importer"),
		users:      map[string]string{},
		categories: map[string]string{},
		genres:     map[string]string{},
		titleGenre: map[string][]string{},
		titles:     map[string]string{},
		reviews:    map[string]string{},
	}
}

// Run imports every fixture present in the source. Absent files are skipped.
func (im *Importer) Run(ctx context.Context) (Stats, error) {
	steps := []struct {
		file string
		load func(context.Context, row) error
	}{
		{UsersFile, im.user},
		{CategoryFile, im.term(models.KindCategory, im.categories)},
		{GenreFile, im.term(models.KindGenre, im.genres)},
		{GenreTitleFile, im.genreTitle},
		{TitlesFile, im.title},
		{ReviewFile, im.review},
		{CommentsFile, im.comment},
	}
	stats := Stats{}
	for _, step := range steps {
		n, err := im.load(ctx, step.file, step.load)
		if errors.Is(err, fs.ErrNotExist) {
			im.logger.Warn("fixture not found, skipping", "file", step.file)
			continue
		}
		if err != nil {
			return stats, err
		}
		stats[step.file] = n
		im.logger.Info("fixture imported", "file", step.file, "rows", n)
	}
	return stats, nil
}

// row is one CSV record addressed by header name.
type row struct {
	header map[string]int
	values []string
}

func (r row) get(col string) string {
	if i, ok := r.header[col]; ok && i < len(r.values) {
		return strings.TrimSpace(r.values[i])
	}
	return ""
}

func (im *Importer) load(ctx context.Context, file string, fn func(context.Context, row) error) (int, error) {
	rc, err := im.src.Open(ctx, file)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	names, err := reader.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: read header: %w", file, err)
	}
	header := make(map[string]int, len(names))
	for i, name := range names {
		header[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	n := 0
	for line := 2; ; line++ {
		values, err := reader.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("%s:%d: %w", file, line, err)
		}
		if err := fn(ctx, row{header: header, values: values}); err != nil {
			return n, fmt.Errorf("%s:%d: %w", file, line, err)
		}
		n++
	}
}

type userRecord struct {
	Username  string      `json:"username" validate:"required,max=150,notme,username"`
	Email     string      `json:"email" validate:"required,max=254,email"`
	FirstName string      `json:"first_name" validate:"max=150"`
	LastName  string      `json:"last_name" validate:"max=150"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

func (im *Importer) user(ctx context.Context, r row) error {
	rec := userRecord{
		Username:  r.get("username"),
		Email:     r.get("email"),
		FirstName: r.get("first_name"),
		LastName:  r.get("last_name"),
		Role:      models.Role(r.get("role")),
	}
	if err := im.valid.Validate(rec); err != nil {
		return err
	}
	if rec.Role == "" {
		rec.Role = models.RoleUser
	}
	u := &models.User{
		Username:  rec.Username,
		Email:     rec.Email,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		Bio:       r.get("bio"),
		Role:      rec.Role,
		IsActive:  true,
	}
	if err := im.store.CreateUser(ctx, u); err != nil {
		return fmt.Errorf("create user %q: %w", u.Username, err)
	}
	im.users[r.get("id")] = u.ID
	return nil
}

func (im *Importer) term(kind models.TermKind, ids map[string]string) func(context.Context, row) error {
	return func(ctx context.Context, r row) error {
		t := &models.Term{Kind: kind, Name: r.get("name"), Slug: r.get("slug")}
		if t.Name == "" || len(t.Name) > models.TermNameMaxLength {
			return fmt.Errorf("invalid %s name %q", kind, t.Name)
		}
		if !validation.SlugValid(t.Slug) || len(t.Slug) > models.SlugMaxLength {
			return fmt.Errorf("invalid %s slug %q", kind, t.Slug)
		}
		if err := im.store.CreateTerm(ctx, t); err != nil {
			return fmt.Errorf("create %s %q: %w", kind, t.Slug, err)
		}
		ids[r.get("id")] = t.ID
		return nil
	}
}

func (im *Importer) genreTitle(_ context.Context, r row) error {
	genreID, ok := im.genres[r.get("genre_id")]
	if !ok {
		return fmt.Errorf("unknown genre id %q", r.get("genre_id"))
	}
	titleKey := r.get("title_id")
	im.titleGenre[titleKey] = append(im.titleGenre[titleKey], genreID)
	return nil
}

func (im *Importer) title(ctx context.Context, r row) error {
	year, err := strconv.Atoi(r.get("year"))
	if err != nil {
		return fmt.Errorf("invalid year %q", r.get("year"))
	}
	if err := validation.CheckYear(year, im.valid.Now()); err != nil {
		return err
	}
	t := &models.Title{
		Name:     r.get("name"),
		Year:     year,
		GenreIDs: im.titleGenre[r.get("id")],
	}
	if t.Name == "" {
		return errors.New("title name is required")
	}
	if d := r.get("description"); d != "" {
		t.Description = &d
	}
	if c := r.get("category"); c != "" {
		id, ok := im.categories[c]
		if !ok {
			return fmt.Errorf("unknown category id %q", c)
		}
		t.CategoryID = &id
	}
	if err := im.store.CreateTitle(ctx, t); err != nil {
		return fmt.Errorf("create title %q: %w", t.Name, err)
	}
	im.titles[r.get("id")] = t.ID
	return nil
}

func (im *Importer) review(ctx context.Context, r row) error {
	titleID, ok := im.titles[r.get("title_id")]
	if !ok {
		return fmt.Errorf("unknown title id %q", r.get("title_id"))
	}
	authorID, ok := im.users[r.get("author")]
	if !ok {
		return fmt.Errorf("unknown author id %q", r.get("author"))
	}
	score, err := strconv.Atoi(r.get("score"))
	if err != nil {
		return fmt.Errorf("invalid score %q", r.get("score"))
	}
	if err := validation.CheckScore(score); err != nil {
		return err
	}
	pub, err := parseDate(r.get("pub_date"))
	if err != nil {
		return err
	}
	rv := &models.Review{TitleID: titleID, AuthorID: authorID, Text: r.get("text"), Score: score, PubDate: pub}
	if err := im.store.CreateReview(ctx, rv); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	im.reviews[r.get("id")] = rv.ID
	return nil
}

func (im *Importer) comment(ctx context.Context, r row) error {
	reviewID, ok := im.reviews[r.get("review_id")]
	if !ok {
		return fmt.Errorf("unknown review id %q", r.get("review_id"))
	}
	authorID, ok := im.users[r.get("author")]
	if !ok {
		return fmt.Errorf("unknown author id %q", r.get("author"))
	}
	pub, err := parseDate(r.get("pub_date"))
	if err != nil {
		return err
	}
	c := &models.Comment{ReviewID: reviewID, AuthorID: authorID, Text: r.get("text"), PubDate: pub}
	if err := im.store.CreateComment(ctx, c); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps; an empty value means now.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pub_date %q", s)
	}
	return t.UTC(), nil
}
