package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/hotel-booking-api/services"
	"github.com/upb/hotel-booking-api/utils"
)

// HandleServiceError maps domain errors to HTTP responses.
// Internal errors are logged in full and answered with a generic message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	if utils.StatusForError(err) >= http.StatusInternalServerError {
		logger.Error("internal server error",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
	} else {
		logger.Debug("handled service error",
			zap.String("type", string(services.GetErrorType(err))),
			zap.String("message", services.GetErrorMessage(err)),
			zap.Any("details", services.GetErrorDetails(err)))
	}

	if werr := utils.WriteServiceError(w, err); werr != nil {
		logger.Error("failed to write error response", zap.Error(werr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	// Generic validation error
	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
