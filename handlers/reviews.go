package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/middleware"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/policy"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/validation"
)

// authorizeChange applies the object-level rule for editing or deleting
// something written by ownerID.
func authorizeChange(r *http.Request, ownerID string) error {
	subject := middleware.SubjectFromContext(r.Context())
	return middleware.DecisionError(policy.AuthorAdminModeratorOrReadOnly.Object(subject, r.Method, ownerID))
}

type ReviewsHandler struct {
	DB        store.Store
	Validator *validation.Validator
	PageSize  int
}

type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required"`
	Score *int   `json:"score" validate:"required,score"`
}

type UpdateReviewRequest struct {
	Text  *string `json:"text" validate:"omitnil,min=1"`
	Score *int    `json:"score" validate:"omitnil,score"`
}

func (h *ReviewsHandler) titleID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "titleID")
	if _, err := h.DB.TitleByID(r.Context(), id); err != nil {
		return "", storeError(err, "title")
	}
	return id, nil
}

func (h *ReviewsHandler) review(r *http.Request) (*models.Review, error) {
	titleID, err := h.titleID(r)
	if err != nil {
		return nil, err
	}
	review, err := h.DB.ReviewByID(r.Context(), titleID, chi.URLParam(r, "reviewID"))
	if err != nil {
		return nil, storeError(err, "review")
	}
	return review, nil
}

// List returns the title's reviews, newest first.
func (h *ReviewsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r, h.PageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	titleID, err := h.titleID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, total, err := h.DB.ListReviews(r.Context(), titleID, p.window())
	if err != nil {
		writeError(w, r, storeError(err, "review"))
		return
	}
	page, err := newPage(r, p, total, reviews)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Create posts the caller's review. Each user reviews a title at most once.
func (h *ReviewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}
	titleID, err := h.titleID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	review := &models.Review{
		TitleID:  titleID,
		AuthorID: caller.ID,
		Text:     req.Text,
		Score:    *req.Score,
	}
	if err := h.DB.CreateReview(r.Context(), review); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = apperr.New(apperr.KindDuplicateReview, apperr.KindDuplicateReview.DefaultMessage())
		} else {
			err = storeError(err, "review")
		}
		writeError(w, r, err)
		return
	}
	review.Author = caller.Username
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.review(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// Update edits text or score. The one-review-per-title rule is not rechecked.
func (h *ReviewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	review, err := h.review(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := authorizeChange(r, review.AuthorID); err != nil {
		writeError(w, r, err)
		return
	}
	var req UpdateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	if err := h.DB.UpdateReview(r.Context(), review); err != nil {
		writeError(w, r, storeError(err, "review"))
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	review, err := h.review(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := authorizeChange(r, review.AuthorID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.DB.DeleteReview(r.Context(), review.ID); err != nil {
		writeError(w, r, storeError(err, "review"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type CommentsHandler struct {
	DB        store.Store
	Validator *validation.Validator
	PageSize  int
}

type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// reviewID checks that the review exists under the title in the path.
func (h *CommentsHandler) reviewID(r *http.Request) (string, error) {
	titleID := chi.URLParam(r, "titleID")
	if _, err := h.DB.TitleByID(r.Context(), titleID); err != nil {
		return "", storeError(err, "title")
	}
	review, err := h.DB.ReviewByID(r.Context(), titleID, chi.URLParam(r, "reviewID"))
	if err != nil {
		return "", storeError(err, "review")
	}
	return review.ID, nil
}

func (h *CommentsHandler) comment(r *http.Request) (*models.Comment, error) {
	reviewID, err := h.reviewID(r)
	if err != nil {
		return nil, err
	}
	comment, err := h.DB.CommentByID(r.Context(), reviewID, chi.URLParam(r, "commentID"))
	if err != nil {
		return nil, storeError(err, "comment")
	}
	return comment, nil
}

func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r, h.PageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviewID, err := h.reviewID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	comments, total, err := h.DB.ListComments(r.Context(), reviewID, p.window())
	if err != nil {
		writeError(w, r, storeError(err, "comment"))
		return
	}
	page, err := newPage(r, p, total, comments)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}
	reviewID, err := h.reviewID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	comment := &models.Comment{ReviewID: reviewID, AuthorID: caller.ID, Text: req.Text}
	if err := h.DB.CreateComment(r.Context(), comment); err != nil {
		writeError(w, r, storeError(err, "comment"))
		return
	}
	comment.Author = caller.Username
	writeJSON(w, http.StatusCreated, comment)
}

func (h *CommentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	comment, err := h.comment(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (h *CommentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	comment, err := h.comment(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := authorizeChange(r, comment.AuthorID); err != nil {
		writeError(w, r, err)
		return
	}
	var req CommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	comment.Text = req.Text
	if err := h.DB.UpdateComment(r.Context(), comment); err != nil {
		writeError(w, r, storeError(err, "comment"))
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	comment, err := h.comment(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := authorizeChange(r, comment.AuthorID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.DB.DeleteComment(r.Context(), comment.ID); err != nil {
		writeError(w, r, storeError(err, "comment"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
