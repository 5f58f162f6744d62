// Package postgres implements store.Store on PostgreSQL through GORM.
// Referential cascades and the score range live in the schema itself.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kevinaaaquil/yamdb/store"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store implements store.Store using GORM + Postgres.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// SQLSTATE codes translated into store errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// New opens the database and migrates the schema.
func New(dsn string) (*Store, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&userRow{}, &termRow{}, &titleRow{}, &titleGenreRow{}, &reviewRow{}, &commentRow{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		for _, fk := range foreignKeys {
			stmt := fmt.Sprintf(`
				DO $$
				BEGIN
					IF NOT EXISTS (
						SELECT 1 FROM information_schema.table_constraints
						WHERE table_schema = current_schema()
						AND table_name = '%[1]s'
						AND constraint_name = '%[2]s'
					) THEN
						ALTER TABLE %[1]s ADD CONSTRAINT %[2]s %[3]s;
					END IF;
				END $$;`, fk.table, fk.name, fk.def)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("ensure %s: %w", fk.name, err)
			}
		}
		return nil
	})
}

var foreignKeys = []struct {
	table, name, def string
}{
	{"titles", "titles_category_id_fkey", "FOREIGN KEY (category_id) REFERENCES terms(id) ON DELETE SET NULL"},
	{"title_genres", "title_genres_title_id_fkey", "FOREIGN KEY (title_id) REFERENCES titles(id) ON DELETE CASCADE"},
	{"title_genres", "title_genres_genre_id_fkey", "FOREIGN KEY (genre_id) REFERENCES terms(id) ON DELETE CASCADE"},
	{"reviews", "reviews_title_id_fkey", "FOREIGN KEY (title_id) REFERENCES titles(id) ON DELETE CASCADE"},
	{"reviews", "reviews_author_id_fkey", "FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE"},
	{"comments", "comments_review_id_fkey", "FOREIGN KEY (review_id) REFERENCES reviews(id) ON DELETE CASCADE"},
	{"comments", "comments_author_id_fkey", "FOREIGN KEY (author_id) REFERENCES users(id) ON DELETE CASCADE"},
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps GORM and Postgres errors to the store error contract.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case idxUsername:
			return &store.DuplicateError{Field: "username"}
		case idxEmail:
			return &store.DuplicateError{Field: "email"}
		case idxTermSlug:
			return &store.DuplicateError{Field: "slug"}
		case idxReview:
			return &store.DuplicateError{Field: "review"}
		}
		return &store.DuplicateError{Field: "unknown"}
	case codeCheckViolation, codeForeignKeyViolation:
		return store.ErrConstraint
	}
	return err
}

// affected turns a zero-row write into store.ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func paginate(q *gorm.DB, p store.Page) *gorm.DB {
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
