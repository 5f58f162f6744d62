package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/yamdb/service"
)

type AuthHandler struct {
	Auth *service.AuthService
}

type SignUpResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// SignUp registers the caller or reissues their confirmation code.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.Auth.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SignUpResponse{Username: user.Username, Email: user.Email})
}

// Token exchanges a confirmation code for an access token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req service.TokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.Auth.IssueToken(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}
