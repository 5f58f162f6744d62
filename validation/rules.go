// Package validation holds the write-time rules every mutation must pass,
// and a go-playground/validator wrapper that applies them to request payloads.
package validation

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/models"
)

// ReservedUsername is taken by the self-service profile route.
const ReservedUsername = "me"

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)
	slugRe     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// YearValid reports whether year is not after the calendar year of now.
func YearValid(year int, now time.Time) bool {
	return year <= now.Year()
}

// ScoreValid reports whether score is within [MinScore, MaxScore].
func ScoreValid(score int) bool {
	return score >= models.MinScore && score <= models.MaxScore
}

// UsernameNotReserved reports whether name can be used as a username.
func UsernameNotReserved(name string) bool {
	return name != ReservedUsername
}

// UsernameCharsetValid reports whether name only uses ASCII letters, digits and @.+-_.
func UsernameCharsetValid(name string) bool {
	return usernameRe.MatchString(name)
}

// SlugValid reports whether s is a URL slug.
func SlugValid(s string) bool {
	return slugRe.MatchString(s)
}

// CheckYear returns an INVALID_YEAR error for a year in the future.
func CheckYear(year int, now time.Time) error {
	if !YearValid(year, now) {
		return apperr.Field(apperr.KindInvalidYear, "year",
			fmt.Sprintf("year %d has not come yet", year))
	}
	return nil
}

// CheckScore returns an INVALID_SCORE error for a score outside 1..10.
func CheckScore(score int) error {
	if !ScoreValid(score) {
		return apperr.Field(apperr.KindInvalidScore, "score",
			fmt.Sprintf("score %d is out of range, use %d to %d", score, models.MinScore, models.MaxScore))
	}
	return nil
}

// CheckUsername applies the reserved-word and charset rules.
func CheckUsername(name string) error {
	if !UsernameNotReserved(name) {
		return apperr.Field(apperr.KindReservedUsername, "username", `"me" cannot be used as a username`)
	}
	if !UsernameCharsetValid(name) {
		return apperr.Field(apperr.KindInvalidUsername, "username",
			"may contain only ASCII letters, digits and @/./+/-/_")
	}
	return nil
}
