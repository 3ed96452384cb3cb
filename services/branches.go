package services

import (
	"context"
	"net/http"

	"github.com/twy/backoffice/client"
	"github.com/twy/backoffice/models"
	"go.uber.org/zap"
)

const branchesPath = "/branches"

// Branches manages company offices
type Branches struct {
	client *client.Client
	logger *zap.Logger
}

// List returns one page of branches
func (s *Branches) List(ctx context.Context, params models.ListParams) (models.PaginatedBranches, error) {
	return list[models.PaginatedBranches](ctx, s.client, branchesPath, params)
}

// Get returns a branch by ID
func (s *Branches) Get(ctx context.Context, id string) (*models.Branch, error) {
	return call[*models.Branch](ctx, s.client, client.NewRequest(http.MethodGet, resourcePath(branchesPath, id), nil))
}

// Create adds a branch
func (s *Branches) Create(ctx context.Context, form models.BranchForm) (*models.Branch, error) {
	branch, err := send[*models.Branch](ctx, s.client, http.MethodPost, branchesPath, &form)
	if err != nil {
		return nil, err
	}
	s.logger.Info("branch created", zap.String("branch_id", branch.ID))
	return branch, nil
}

// Update replaces the set fields of a branch
func (s *Branches) Update(ctx context.Context, req models.UpdateBranchRequest) (*models.Branch, error) {
	return send[*models.Branch](ctx, s.client, http.MethodPut, resourcePath(branchesPath, req.ID), &req)
}

// Delete removes a branch
func (s *Branches) Delete(ctx context.Context, id string) error {
	_, err := call[models.MessageResponse](ctx, s.client, client.NewRequest(http.MethodDelete, resourcePath(branchesPath, id), nil))
	if err == nil {
		s.logger.Info("branch deleted", zap.String("branch_id", id))
	}
	return err
}
