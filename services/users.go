package services

import (
	"context"
	"net/http"

	"github.com/twy/backoffice/client"
	"github.com/twy/backoffice/models"
	"go.uber.org/zap"
)

const (
	usersPath       = "/users"
	currentUserPath = "/user"
)

// Users manages back-office accounts
type Users struct {
	client *client.Client
	logger *zap.Logger
}

// List returns one page of users
func (s *Users) List(ctx context.Context, params models.ListParams) (models.PaginatedUsers, error) {
	return list[models.PaginatedUsers](ctx, s.client, usersPath, params)
}

// Get returns a user by ID
func (s *Users) Get(ctx context.Context, id string) (*models.User, error) {
	return call[*models.User](ctx, s.client, client.NewRequest(http.MethodGet, resourcePath(usersPath, id), nil))
}

// Create registers a new user
func (s *Users) Create(ctx context.Context, form models.UserForm) (*models.User, error) {
	user, err := send[*models.User](ctx, s.client, http.MethodPost, usersPath, &form)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", user.ID))
	return user, nil
}

// Update changes a user's branch, role or active flag
func (s *Users) Update(ctx context.Context, req models.UpdateUserRequest) (*models.User, error) {
	return send[*models.User](ctx, s.client, http.MethodPatch, resourcePath(usersPath, req.ID), &req)
}

// SelfUpdate changes the signed-in user's own profile
func (s *Users) SelfUpdate(ctx context.Context, req models.SelfUpdateRequest) (*models.CurrentUser, error) {
	return send[*models.CurrentUser](ctx, s.client, http.MethodPatch, currentUserPath, &req)
}

// Delete removes a user
func (s *Users) Delete(ctx context.Context, id string) error {
	_, err := call[models.MessageResponse](ctx, s.client, client.NewRequest(http.MethodDelete, resourcePath(usersPath, id), nil))
	if err == nil {
		s.logger.Info("user deleted", zap.String("user_id", id))
	}
	return err
}

// Current returns the signed-in user's profile
func (s *Users) Current(ctx context.Context) (*models.CurrentUser, error) {
	return call[*models.CurrentUser](ctx, s.client, client.NewRequest(http.MethodGet, currentUserPath, nil))
}
