package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"stocktracker-backend/pkg/errors"
)

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func respondMessage(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	respondJSON(w, logger, status, map[string]interface{}{
		"error":   status >= http.StatusBadRequest,
		"message": message,
		"code":    status,
	})
}

// respondAppError maps a service error onto its HTTP status. Unclassified
// errors become a 500 without leaking their cause.
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if appErr := errors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", zap.Error(err))
		}
		respondJSON(w, logger, status, map[string]interface{}{
			"error":   true,
			"type":    string(appErr.Type),
			"message": appErr.Message,
			"code":    status,
		})
		return
	}

	logger.Error("request failed", zap.Error(err))
	respondMessage(w, logger, http.StatusInternalServerError, "internal error")
}
