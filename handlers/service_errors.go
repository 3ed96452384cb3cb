package handlers

import (
	"errors"
	"net/http"

	"github.com/twy/backoffice/mockapi"
	"github.com/twy/backoffice/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. The domain
// message is the response message, since clients match on it.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message, _ := mockapi.PublicMessage(err)
	var details map[string]string
	var domainErr *mockapi.DomainError
	if errors.As(err, &domainErr) {
		details = domainErr.Details
	}

	var werr error
	switch {
	case mockapi.IsNotFoundError(err):
		werr = utils.WriteNotFound(w, message)

	case mockapi.IsValidationError(err):
		werr = utils.WriteBadRequest(w, message, details)

	case mockapi.IsUnauthorizedError(err):
		werr = utils.WriteUnauthorized(w, message)

	case mockapi.IsForbiddenError(err):
		werr = utils.WriteForbidden(w, message)

	case mockapi.IsConflictError(err):
		werr = utils.WriteConflict(w, message)

	default:
		// internal details stay in the log
		logger.Error("internal server error", zap.Error(err))
		werr = utils.WriteInternalServerError(w, "An internal error occurred")
	}
	if werr != nil {
		logger.Error("failed to write error response", zap.Error(werr))
	}

	if domainErr != nil {
		logger.Debug("handled service error",
			zap.String("type", string(domainErr.Type)),
			zap.String("message", domainErr.Message))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		if err := utils.WriteValidationError(w, err); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
