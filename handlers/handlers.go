// Package handlers serves the mock back-office API over HTTP. Handlers stay
// thin: decode, validate, call the backend, write the envelope.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/twy/backoffice/middleware"
	"github.com/twy/backoffice/mockapi"
	"github.com/twy/backoffice/utils"
	"go.uber.org/zap"
)

// Handler serves the mock API endpoints
type Handler struct {
	backend *mockapi.Backend
	logger  *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(backend *mockapi.Backend, logger *zap.Logger) *Handler {
	return &Handler{
		backend: backend,
		logger:  logger,
	}
}

// decode reads and validates the request body into dst, writing the 400
// itself when either step fails
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	if err := utils.DecodeJSON(r, dst); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return false
	}
	return true
}

// respond writes data in the envelope, or maps err
func respond[T any](h *Handler, w http.ResponseWriter, r *http.Request, status int, data T, err error) {
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	requestID := middleware.GetRequestIDFromContext(r.Context())
	if werr := utils.WriteData(w, status, requestID, data); werr != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(werr))
	}
}

// subject returns the authenticated caller's user ID
func subject(r *http.Request) (string, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}
