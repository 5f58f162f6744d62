package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/middleware"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/validation"
)

type UsersHandler struct {
	DB        store.Store
	Validator *validation.Validator
	PageSize  int
}

type CreateUserRequest struct {
	Username  string      `json:"username" validate:"required,max=150,notme,username"`
	Email     string      `json:"email" validate:"required,max=254,email"`
	FirstName string      `json:"first_name" validate:"max=150"`
	LastName  string      `json:"last_name" validate:"max=150"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role" validate:"omitempty,oneof=user moderator admin"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Username  *string      `json:"username" validate:"omitnil,min=1,max=150,notme,username"`
	Email     *string      `json:"email" validate:"omitnil,max=254,email"`
	FirstName *string      `json:"first_name" validate:"omitnil,max=150"`
	LastName  *string      `json:"last_name" validate:"omitnil,max=150"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role" validate:"omitnil,oneof=user moderator admin"`
}

func (req UpdateUserRequest) apply(u *models.User) {
	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Email != nil {
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
}

// List returns users, optionally filtered by ?search= on username.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r, h.PageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, total, err := h.DB.ListUsers(r.Context(), store.UserFilter{
		Search: r.URL.Query().Get("search"),
		Page:   p.window(),
	})
	if err != nil {
		writeError(w, r, storeError(err, "user"))
		return
	}
	page, err := newPage(r, p, total, users)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Create adds a user without issuing a confirmation code.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
		IsActive:  true,
	}
	if err := h.DB.CreateUser(r.Context(), user); err != nil {
		writeError(w, r, storeError(err, "user"))
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UsersHandler) byUsername(r *http.Request) (*models.User, error) {
	user, err := h.DB.UserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.byUsername(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := h.byUsername(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.update(w, r, user, true)
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.byUsername(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.DB.DeleteUser(r.Context(), user.ID); err != nil {
		writeError(w, r, storeError(err, "user"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller's own record.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe applies a partial update to the caller's record. The role field is read-only here.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}
	user := *caller
	h.update(w, r, &user, false)
}

func (h *UsersHandler) update(w http.ResponseWriter, r *http.Request, user *models.User, allowRole bool) {
	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if !allowRole {
		req.Role = nil
	}
	if err := h.Validator.Validate(req); err != nil {
		writeError(w, r, err)
		return
	}
	req.apply(user)
	if err := h.DB.UpdateUser(r.Context(), user); err != nil {
		writeError(w, r, storeError(err, "user"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}
