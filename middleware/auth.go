package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/policy"
	"github.com/kevinaaaquil/yamdb/service"
)

type contextKey string

const userKey contextKey = "user"

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(raw string) (*service.Claims, error)
}

// UserLoader resolves the user a token was issued to.
type UserLoader interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate attaches the caller to the request context. Requests without an
// Authorization header continue anonymously; a malformed or invalid token, or a
// token for a missing or inactive account, is rejected with 401.
func Authenticate(tokens TokenVerifier, users UserLoader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}
			scheme, raw, ok := strings.Cut(auth, " ")
			if !ok || scheme != "Bearer" || raw == "" {
				WriteError(w, r, apperr.New(apperr.KindUnauthorized, "invalid authorization header"))
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				WriteError(w, r, apperr.New(apperr.KindUnauthorized, "invalid or expired token"))
				return
			}
			user, err := users.UserByID(r.Context(), claims.UserID)
			if err != nil || !user.IsActive {
				WriteError(w, r, apperr.New(apperr.KindUnauthorized, "user not found or inactive"))
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated caller, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// SubjectFromContext returns the policy subject for the caller; anonymous when unauthenticated.
func SubjectFromContext(ctx context.Context) policy.Subject {
	u, _ := UserFromContext(ctx)
	return policy.SubjectOf(u)
}

// Permit enforces the collection-level check of rule.
func Permit(rule policy.Rule) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := DecisionError(rule.Collection(SubjectFromContext(r.Context()), r.Method)); err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DecisionError converts a denied decision to its API error, or nil when allowed.
func DecisionError(d policy.Decision) error {
	switch d {
	case policy.Allow:
		return nil
	case policy.Unauthenticated:
		return apperr.ErrUnauthorized
	default:
		return apperr.ErrForbidden
	}
}
