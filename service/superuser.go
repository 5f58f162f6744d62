package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/validation"
)

// EnsureSuperuser creates a staff admin account, or elevates the existing account
// with that username. It reports whether a new account was created.
func EnsureSuperuser(ctx context.Context, st store.Store, username, email string) (*models.User, bool, error) {
	if err := validation.CheckUsername(username); err != nil {
		return nil, false, err
	}
	user, err := st.UserByUsername(ctx, username)
	if err == nil {
		if user.IsStaff && user.Role == models.RoleAdmin && user.IsActive {
			return user, false, nil
		}
		user.IsStaff = true
		user.IsActive = true
		user.Role = models.RoleAdmin
		if err := st.UpdateUser(ctx, user); err != nil {
			return nil, false, fmt.Errorf("elevate %s: %w", username, err)
		}
		return user, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("look up %s: %w", username, err)
	}
	if email == "" {
		return nil, false, fmt.Errorf("email is required to create %s", username)
	}
	user = &models.User{
		Username: username,
		Email:    email,
		Role:     models.RoleAdmin,
		IsStaff:  true,
		IsActive: true,
	}
	if err := st.CreateUser(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create %s: %w", username, err)
	}
	return user, true, nil
}
