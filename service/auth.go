package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/validation"
)

const confirmationSubject = "YaMDb confirmation code"

// AuthOptions are the opt-in hardening switches for confirmation codes.
type AuthOptions struct {
	HashCodes bool          // store a bcrypt hash instead of the code
	CodeTTL   time.Duration // reject codes older than this; 0 disables expiry
}

// AuthService runs the confirmation-code sign-in flow.
type AuthService struct {
	store     store.Store
	mailer    Mailer
	tokens    *TokenIssuer
	validator *validation.Validator
	codes     codeStorage
	codeTTL   time.Duration
	newCode   func() (string, error)
	now       func() time.Time
}

func NewAuthService(st store.Store, mailer Mailer, tokens *TokenIssuer, v *validation.Validator, opts AuthOptions) *AuthService {
	var codes codeStorage = plainCodes{}
	if opts.HashCodes {
		codes = hashedCodes{}
	}
	return &AuthService{
		store:     st,
		mailer:    mailer,
		tokens:    tokens,
		validator: v,
		codes:     codes,
		codeTTL:   opts.CodeTTL,
		newCode:   NewConfirmationCode,
		now:       time.Now,
	}
}

// SignUpRequest is the sign-up payload.
type SignUpRequest struct {
	Username string `json:"username" validate:"required,max=150,notme,username"`
	Email    string `json:"email" validate:"required,max=254,email"`
}

// TokenRequest is the token exchange payload.
type TokenRequest struct {
	Username         string `json:"username" validate:"required,max=150,notme,username"`
	ConfirmationCode string `json:"confirmation_code" validate:"required"`
}

// SignUp fetches the account owning both username and email, or creates it, then
// issues a fresh confirmation code and mails it. A username or email bound to a
// different account fails with CONFLICTING_CREDENTIALS.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.getOrCreate(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "issue confirmation code", err)
	}
	sealed, err := s.codes.seal(code)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "issue confirmation code", err)
	}
	issuedAt := s.now().UTC()
	user.ConfirmationCode = sealed
	user.CodeIssuedAt = &issuedAt
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save confirmation code", err)
	}

	body := fmt.Sprintf("%s, your confirmation code: %s", user.Username, code)
	if err := s.mailer.Send(ctx, user.Email, confirmationSubject, body); err != nil {
		slog.WarnContext(ctx, "confirmation mail not sent", "username", user.Username, "error", err)
	}
	return user, nil
}

func (s *AuthService) getOrCreate(ctx context.Context, username, email string) (*models.User, error) {
	user, err := s.store.UserByUsername(ctx, username)
	switch {
	case err == nil:
		if user.Email != email {
			return nil, apperr.ErrConflictingCredentials.WithField("email", "does not match the registered email")
		}
		return user, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperr.Wrap(apperr.KindInternal, "look up user", err)
	}

	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return nil, apperr.ErrConflictingCredentials.WithField("email", "already registered to another user")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindInternal, "look up user", err)
	}

	user = &models.User{Username: username, Email: email, Role: models.RoleUser, IsActive: true}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if field := store.DuplicateField(err); field != "" {
			return nil, apperr.ErrConflictingCredentials.WithField(field, "already taken")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "create user", err)
	}
	return user, nil
}

// IssueToken exchanges a confirmation code for an access token.
func (s *AuthService) IssueToken(ctx context.Context, req TokenRequest) (string, error) {
	if err := s.validator.Validate(req); err != nil {
		return "", err
	}
	user, err := s.store.UserByUsername(ctx, req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return "", apperr.NotFound("user")
	}
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "look up user", err)
	}
	if !user.IsActive || !s.codes.matches(user.ConfirmationCode, req.ConfirmationCode) || s.expired(user) {
		return "", apperr.ErrInvalidCode.WithField("confirmation_code", "invalid confirmation code")
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "sign token", err)
	}
	return token, nil
}

func (s *AuthService) expired(u *models.User) bool {
	if s.codeTTL <= 0 {
		return false
	}
	return u.CodeIssuedAt == nil || s.now().Sub(*u.CodeIssuedAt) > s.codeTTL
}
