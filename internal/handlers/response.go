package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/AnshRaj112/mindnest-backend/internal/apperrors"
	"github.com/rs/zerolog/hlog"
)

const maxBodyBytes = 1 << 20 // 1MB

// MessageResponse is the envelope for responses that carry no payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse adds per-field messages to failed validations.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps a service error to its status. Internal errors are logged and replaced by
// a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("Request failed")
		writeJSON(w, status, ErrorResponse{Success: false, Message: "internal server error"})
		return
	}

	resp := ErrorResponse{Success: false, Message: err.Error()}
	if appErr, ok := apperrors.As(err); ok {
		resp.Message = appErr.Message
		resp.Errors = appErr.Fields
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON object from the body into dst. Malformed or oversized
// bodies become a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("", "request body is required")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Validation("", "request body is too large")
		}
		return apperrors.Validation("", "invalid request body")
	}
	return nil
}
