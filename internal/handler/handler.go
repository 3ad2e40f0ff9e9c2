package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"steel-spark/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps a domain error to its HTTP status. Anything else is a 500
// and its text is not exposed.
func writeServiceError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg(fallback)
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, fallback, logger)
		return
	}
	writeError(w, statusForCode(domainErr.Code), domainErr.Code, domainErr.Message, logger)
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeProductNotFound, model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthorised, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeEmailTaken:
		return http.StatusConflict
	case model.ErrCodeImageTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger zerolog.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

func writeMissingField(w http.ResponseWriter, field string, logger zerolog.Logger) {
	writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, field+" is required", logger)
}
