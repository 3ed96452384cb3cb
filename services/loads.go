package services

import (
	"context"
	"net/http"

	"github.com/twy/backoffice/client"
	"github.com/twy/backoffice/models"
	"go.uber.org/zap"
)

const loadsPath = "/loads"

// Loads manages freight loads and their review status
type Loads struct {
	client *client.Client
	logger *zap.Logger
}

// List returns one page of loads
func (s *Loads) List(ctx context.Context, params models.ListParams) (models.PaginatedLoads, error) {
	return list[models.PaginatedLoads](ctx, s.client, loadsPath, params)
}

// Create submits a new load for review
func (s *Loads) Create(ctx context.Context, details models.LoadDetails) (models.CreateLoadResponse, error) {
	resp, err := send[models.CreateLoadResponse](ctx, s.client, http.MethodPost, loadsPath, &details)
	if err != nil {
		return resp, err
	}
	s.logger.Info("load created", zap.String("load_id", resp.LoadID))
	return resp, nil
}

// Update changes the set fields of a load
func (s *Loads) Update(ctx context.Context, id string, req models.UpdateLoadRequest) (*models.Load, error) {
	return send[*models.Load](ctx, s.client, http.MethodPut, resourcePath(loadsPath, id), &req)
}

// ChangeStatus approves, denies or resets a load
func (s *Loads) ChangeStatus(ctx context.Context, id string, status models.LoadStatus) (models.ChangeStatusResponse, error) {
	req := models.ChangeLoadStatusRequest{Status: status}
	resp, err := send[models.ChangeStatusResponse](ctx, s.client, http.MethodPatch, resourcePath(loadsPath, id)+"/status", &req)
	if err != nil {
		return resp, err
	}
	s.logger.Info("load status changed",
		zap.String("load_id", id),
		zap.String("status", string(resp.Status)))
	return resp, nil
}

// Delete removes a load
func (s *Loads) Delete(ctx context.Context, id string) error {
	_, err := call[models.MessageResponse](ctx, s.client, client.NewRequest(http.MethodDelete, resourcePath(loadsPath, id), nil))
	return err
}
