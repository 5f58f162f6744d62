// Package handlers exposes the YaMDb REST API over chi.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/yamdb/middleware"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/policy"
	"github.com/kevinaaaquil/yamdb/service"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/validation"
)

// Deps are the collaborators the API is built from.
//
// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP. The
// auth rate limiter keys on that address, so only set it behind a proxy that
// overwrites those headers.
type Deps struct {
	Store      store.Store
	Auth       *service.AuthService
	Tokens     middleware.TokenVerifier
	Validator  *validation.Validator
	Limiter    middleware.Limiter // nil disables auth rate limiting
	PageSize   int
	TrustProxy bool
}

// NewRouter mounts every endpoint under /api/v1 plus /health.
func NewRouter(d Deps) http.Handler {
	if d.PageSize <= 0 {
		d.PageSize = 10
	}
	auth := &AuthHandler{Auth: d.Auth}
	users := &UsersHandler{DB: d.Store, Validator: d.Validator, PageSize: d.PageSize}
	categories := &TermsHandler{DB: d.Store, Validator: d.Validator, Kind: models.KindCategory, PageSize: d.PageSize}
	genres := &TermsHandler{DB: d.Store, Validator: d.Validator, Kind: models.KindGenre, PageSize: d.PageSize}
	titles := &TitlesHandler{DB: d.Store, Validator: d.Validator, PageSize: d.PageSize}
	reviews := &ReviewsHandler{DB: d.Store, Validator: d.Validator, PageSize: d.PageSize}
	comments := &CommentsHandler{DB: d.Store, Validator: d.Validator, PageSize: d.PageSize}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if d.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLog)
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.CORS())
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Tokens, d.Store))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(d.Limiter, "signup")).Post("/signup", auth.SignUp)
			r.With(middleware.RateLimit(d.Limiter, "token")).Post("/token", auth.Token)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(middleware.Permit(policy.Authenticated)).Get("/me", users.Me)
			r.With(middleware.Permit(policy.Authenticated)).Patch("/me", users.UpdateMe)
			r.Group(func(r chi.Router) {
				r.Use(middleware.Permit(policy.AdminOnly))
				r.Get("/", users.List)
				r.Post("/", users.Create)
				r.Get("/{username}", users.Get)
				r.Patch("/{username}", users.Update)
				r.Delete("/{username}", users.Delete)
			})
		})

		mountTerms := func(path string, h *TermsHandler) {
			r.Route(path, func(r chi.Router) {
				r.Use(middleware.Permit(policy.AdminOrReadOnly))
				r.Get("/", h.List)
				r.Post("/", h.Create)
				r.Delete("/{slug}", h.Delete)
			})
		}
		mountTerms("/categories", categories)
		mountTerms("/genres", genres)

		r.Route("/titles", func(r chi.Router) {
			r.With(middleware.Permit(policy.AdminOrReadOnly)).Group(func(r chi.Router) {
				r.Get("/", titles.List)
				r.Post("/", titles.Create)
				r.Get("/{titleID}", titles.Get)
				r.Patch("/{titleID}", titles.Update)
				r.Delete("/{titleID}", titles.Delete)
			})

			r.Route("/{titleID}/reviews", func(r chi.Router) {
				r.Use(middleware.Permit(policy.AuthorAdminModeratorOrReadOnly))
				r.Get("/", reviews.List)
				r.Post("/", reviews.Create)
				r.Get("/{reviewID}", reviews.Get)
				r.Patch("/{reviewID}", reviews.Update)
				r.Delete("/{reviewID}", reviews.Delete)

				r.Route("/{reviewID}/comments", func(r chi.Router) {
					r.Get("/", comments.List)
					r.Post("/", comments.Create)
					r.Get("/{commentID}", comments.Get)
					r.Patch("/{commentID}", comments.Update)
					r.Delete("/{commentID}", comments.Delete)
				})
			})
		})
	})
	return r
}
