package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/validation"
)

type TitlesHandler struct {
	DB        store.Store
	Validator *validation.Validator
	PageSize  int
}

// TitleResponse is the read shape of a title. Rating is the truncated
// average review score, null until the first review.
type TitleResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Year        int           `json:"year"`
	Rating      *int          `json:"rating"`
	Description *string       `json:"description"`
	Genre       []models.Term `json:"genre"`
	Category    *models.Term  `json:"category"`
}

func newTitleResponse(t models.Title) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Genre:       t.Genres,
		Category:    t.Category,
	}
	if resp.Genre == nil {
		resp.Genre = []models.Term{}
	}
	if t.Rating != nil {
		rating := int(*t.Rating)
		resp.Rating = &rating
	}
	return resp
}

// CreateTitleRequest references category and genres by slug.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        *int     `json:"year" validate:"required,pastyear"`
	Description *string  `json:"description"`
	Category    string   `json:"category" validate:"required,slug"`
	Genre       []string `json:"genre" validate:"required,dive,slug"`
}

// UpdateTitleRequest is a partial update. A present genre list replaces the old one.
type UpdateTitleRequest struct {
	Name        *string  `json:"name" validate:"omitnil,min=1,max=256"`
	Year        *int     `json:"year" validate:"omitnil,pastyear"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" validate:"omitnil,slug"`
	Genre       []string `json:"genre" validate:"omitempty,dive,slug"`
}

// List supports ?name= (substring), ?year=, ?genre= and ?category= (slugs)
// and ?ordering=rating or -rating.
func (h *TitlesHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r, h.PageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	filter := store.TitleFilter{
		Name:     q.Get("name"),
		Genre:    q.Get("genre"),
		Category: q.Get("category"),
		Page:     p.window(),
	}
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, apperr.Field(apperr.KindValidation, "year", "enter a whole number"))
			return
		}
		filter.Year = &year
	}
	switch o := q.Get("ordering"); o {
	case "", store.OrderRatingAsc, store.OrderRatingDesc:
		filter.Ordering = o
	default:
		writeError(w, r, apperr.Field(apperr.KindValidation, "ordering", "use rating or -rating"))
		return
	}

	titles, total, err := h.DB.ListTitles(r.Context(), filter)
	if err != nil {
		writeError(w, r, storeError(err, "title"))
		return
	}
	results := make([]TitleResponse, 0, len(titles))
	for _, t := range titles {
		results = append(results, newTitleResponse(t))
	}
	page, err := newPage(r, p, total, results)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *TitlesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTitleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	categoryID, err := h.termID(r.Context(), models.KindCategory, "category", req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	genreIDs, err := h.genreIDs(r.Context(), req.Genre)
	if err != nil {
		writeError(w, r, err)
		return
	}
	title := &models.Title{
		Name:        req.Name,
		Year:        *req.Year,
		Description: req.Description,
		CategoryID:  &categoryID,
		GenreIDs:    genreIDs,
	}
	if err := h.DB.CreateTitle(r.Context(), title); err != nil {
		writeError(w, r, storeError(err, "title"))
		return
	}
	h.respond(w, r, http.StatusCreated, title.ID)
}

func (h *TitlesHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, chi.URLParam(r, "titleID"))
}

func (h *TitlesHandler) Update(w http.ResponseWriter, r *http.Request) {
	title, err := h.DB.TitleByID(r.Context(), chi.URLParam(r, "titleID"))
	if err != nil {
		writeError(w, r, storeError(err, "title"))
		return
	}
	var req UpdateTitleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = req.Description
	}
	if req.Category != nil {
		id, err := h.termID(r.Context(), models.KindCategory, "category", *req.Category)
		if err != nil {
			writeError(w, r, err)
			return
		}
		title.CategoryID = &id
	}
	if req.Genre != nil {
		ids, err := h.genreIDs(r.Context(), req.Genre)
		if err != nil {
			writeError(w, r, err)
			return
		}
		title.GenreIDs = ids
	}
	if err := h.DB.UpdateTitle(r.Context(), title); err != nil {
		writeError(w, r, storeError(err, "title"))
		return
	}
	h.respond(w, r, http.StatusOK, title.ID)
}

// Delete removes the title together with its reviews and their comments.
func (h *TitlesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.DeleteTitle(r.Context(), chi.URLParam(r, "titleID")); err != nil {
		writeError(w, r, storeError(err, "title"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TitlesHandler) respond(w http.ResponseWriter, r *http.Request, status int, id string) {
	title, err := h.DB.TitleByID(r.Context(), id)
	if err != nil {
		writeError(w, r, storeError(err, "title"))
		return
	}
	writeJSON(w, status, newTitleResponse(*title))
}

// termID resolves a slug, reporting an unknown one as a validation error on field.
func (h *TitlesHandler) termID(ctx context.Context, kind models.TermKind, field, slug string) (string, error) {
	t, err := h.DB.TermBySlug(ctx, kind, slug)
	if errors.Is(err, store.ErrNotFound) {
		return "", apperr.Field(apperr.KindValidation, field, `unknown slug "`+slug+`"`)
	}
	if err != nil {
		return "", storeError(err, string(kind))
	}
	return t.ID, nil
}

func (h *TitlesHandler) genreIDs(ctx context.Context, slugs []string) ([]string, error) {
	ids := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		id, err := h.termID(ctx, models.KindGenre, "genre", slug)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
