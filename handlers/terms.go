package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/validation"
)

// TermsHandler serves either categories or genres, depending on Kind.
type TermsHandler struct {
	DB        store.Store
	Validator *validation.Validator
	Kind      models.TermKind
	PageSize  int
}

type CreateTermRequest struct {
	Name string `json:"name" validate:"required,max=256"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// List returns terms of h.Kind; ?search= matches the name exactly.
func (h *TermsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r, h.PageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	terms, total, err := h.DB.ListTerms(r.Context(), store.TermFilter{
		Kind:   h.Kind,
		Search: r.URL.Query().Get("search"),
		Page:   p.window(),
	})
	if err != nil {
		writeError(w, r, storeError(err, string(h.Kind)))
		return
	}
	page, err := newPage(r, p, total, terms)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *TermsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTermRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	term := &models.Term{Kind: h.Kind, Name: req.Name, Slug: req.Slug}
	if err := h.DB.CreateTerm(r.Context(), term); err != nil {
		writeError(w, r, storeError(err, string(h.Kind)))
		return
	}
	writeJSON(w, http.StatusCreated, term)
}

// Delete removes the term by slug. Titles referencing it are kept.
func (h *TermsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.DeleteTerm(r.Context(), h.Kind, chi.URLParam(r, "slug")); err != nil {
		writeError(w, r, storeError(err, string(h.Kind)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
