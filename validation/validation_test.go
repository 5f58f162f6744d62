package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestYearValid(t *testing.T) {
	for _, year := range []int{-500, 0, 1895, 2025, 2026} {
		assert.True(t, YearValid(year, fixedNow), "year %d", year)
		assert.NoError(t, CheckYear(year, fixedNow))
	}
	for _, year := range []int{2027, 2100, 1 << 20} {
		assert.False(t, YearValid(year, fixedNow), "year %d", year)
		err := CheckYear(year, fixedNow)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrInvalidYear)
	}
}

func TestScoreValid(t *testing.T) {
	for s := 1; s <= 10; s++ {
		assert.True(t, ScoreValid(s))
		assert.NoError(t, CheckScore(s))
	}
	for _, s := range []int{-10, -1, 0, 11, 12, 100} {
		assert.False(t, ScoreValid(s))
		assert.ErrorIs(t, CheckScore(s), apperr.ErrInvalidScore)
	}
}

func TestCheckUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *apperr.Error
	}{
		{"plain", "reviewer_1", nil},
		{"email-like", "a.b+c@d-e", nil},
		{"reserved", "me", apperr.ErrReservedUsername},
		{"reserved is case sensitive", "Me", nil},
		{"space", "bad name", apperr.ErrInvalidUsername},
		{"non ascii", "пользователь", apperr.ErrInvalidUsername},
		{"slash", "a/b", apperr.ErrInvalidUsername},
		{"empty", "", apperr.ErrInvalidUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckUsername(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type signupPayload struct {
	Username string `json:"username" validate:"required,max=150,username,notme"`
	Email    string `json:"email" validate:"required,email,max=254"`
}

type titlePayload struct {
	Name  string   `json:"name" validate:"required"`
	Year  *int     `json:"year" validate:"omitempty,pastyear"`
	Genre []string `json:"genre" validate:"dive,slug"`
}

type reviewPayload struct {
	Text  string `json:"text" validate:"required"`
	Score int    `json:"score" validate:"score"`
}

func TestValidatorDomainTags(t *testing.T) {
	v := NewWithClock(func() time.Time { return fixedNow })

	require.NoError(t, v.Validate(signupPayload{Username: "alice", Email: "alice@example.com"}))

	err := v.Validate(signupPayload{Username: "me", Email: "me@example.com"})
	assert.ErrorIs(t, err, apperr.ErrReservedUsername)

	err = v.Validate(signupPayload{Username: "bad name!", Email: "x@example.com"})
	assert.ErrorIs(t, err, apperr.ErrInvalidUsername)

	next := 2027
	err = v.Validate(titlePayload{Name: "Future", Year: &next})
	assert.ErrorIs(t, err, apperr.ErrInvalidYear)

	current := 2026
	assert.NoError(t, v.Validate(titlePayload{Name: "Now", Year: &current}))
	assert.NoError(t, v.Validate(titlePayload{Name: "No year"}))

	err = v.Validate(reviewPayload{Text: "meh", Score: 11})
	assert.ErrorIs(t, err, apperr.ErrInvalidScore)
	assert.NoError(t, v.Validate(reviewPayload{Text: "ok", Score: 10}))
}

func TestValidatorFieldsUseJSONNames(t *testing.T) {
	v := New()
	err := v.Validate(signupPayload{Username: strings.Repeat("a", 151), Email: "nope"})
	require.Error(t, err)

	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "username")
	assert.Contains(t, ae.Fields, "email")
}

func TestValidatorSlugDive(t *testing.T) {
	v := New()
	err := v.Validate(titlePayload{Name: "x", Genre: []string{"drama", "not a slug"}})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
