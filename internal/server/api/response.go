package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/steamhub/internal/common"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, messageResponse{Success: true, Message: message})
}

// writeError maps err to a status code and writes the failure envelope.
func writeError(w http.ResponseWriter, err error) int {
	status, message := mapError(err)
	body := errorResponse{Message: message}

	var verr *common.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		body.Errors = verr.Fields
	}

	writeJSON(w, status, body)
	return status
}

func mapError(err error) (int, string) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, common.ErrorValidation.Error()
	case errors.Is(err, common.ErrDuplicateTransaction):
		return http.StatusBadRequest, common.ErrDuplicateTransaction.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, common.ErrInvalidToken.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, common.ErrEmailNotVerified):
		return http.StatusForbidden, common.ErrEmailNotVerified.Error()
	case errors.Is(err, common.ErrDeviceConflict):
		return http.StatusForbidden, common.ErrDeviceConflict.Error()
	case errors.Is(err, common.ErrDeviceMismatch):
		return http.StatusForbidden, common.ErrDeviceMismatch.Error()
	case errors.Is(err, common.ErrSessionOverridden):
		return http.StatusForbidden, common.ErrSessionOverridden.Error()
	case errors.Is(err, common.ErrSessionClosed):
		return http.StatusForbidden, common.ErrSessionClosed.Error()
	case errors.Is(err, common.ErrNoActiveGames):
		return http.StatusForbidden, common.ErrNoActiveGames.Error()
	case errors.Is(err, common.ErrTooManyAttempts):
		return http.StatusTooManyRequests, common.ErrTooManyAttempts.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "resource not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &common.ValidationError{Message: "invalid request body"}
	}
	return nil
}
