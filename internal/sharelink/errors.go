package sharelink

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

var (
	// Access gate denials. Each one maps to a distinct HTTP answer, though
	// revoked links deliberately answer like missing ones.
	ErrNotFound          = errors.New("link not found")
	ErrRevoked           = errors.New("link revoked")
	ErrExpired           = errors.New("link expired")
	ErrExhausted         = errors.New("link access limit reached")
	ErrPasswordRequired  = errors.New("link password required")
	ErrPasswordIncorrect = errors.New("link password incorrect")

	// ErrFileMissing means the file record vanished while the link still
	// exists; clients see a plain not-found.
	ErrFileMissing = errors.New("underlying file missing")

	ErrInvalidAccessLimit = errors.New("max access count must be at least 1")
	ErrTokenGeneration    = errors.New("could not generate link token")
)

// APIError represents a standardized error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Common error codes
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeExpired           = "EXPIRED"
	ErrCodeExhausted         = "EXHAUSTED"
	ErrCodePasswordRequired  = "PASSWORD_REQUIRED"
	ErrCodePasswordIncorrect = "PASSWORD_INCORRECT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// HandleError sends a standardized error response
func HandleError(w http.ResponseWriter, apiErr *APIError, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		log.Error().
			Err(err).
			Interface("api_error", apiErr).
			Msg("failed to encode error response")
	}
}

// respondError maps a service error onto the HTTP status taxonomy:
// 404 not-found/revoked/file-missing, 410 expired/exhausted, 401 password
// problems, 500 for everything unexpected.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRevoked), errors.Is(err, ErrFileMissing):
		HandleError(w, &APIError{Code: ErrCodeNotFound, Message: "Link not found"}, http.StatusNotFound)
	case errors.Is(err, ErrExpired):
		HandleError(w, &APIError{Code: ErrCodeExpired, Message: "Link has expired"}, http.StatusGone)
	case errors.Is(err, ErrExhausted):
		HandleError(w, &APIError{Code: ErrCodeExhausted, Message: "Link access limit reached"}, http.StatusGone)
	case errors.Is(err, ErrPasswordRequired):
		HandleError(w, &APIError{Code: ErrCodePasswordRequired, Message: "This link requires a password"}, http.StatusUnauthorized)
	case errors.Is(err, ErrPasswordIncorrect):
		HandleError(w, &APIError{Code: ErrCodePasswordIncorrect, Message: "Incorrect link password"}, http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidAccessLimit):
		HandleError(w, &APIError{Code: ErrCodeInvalidInput, Message: err.Error()}, http.StatusBadRequest)
	default:
		log.Error().Err(err).Msg("internal error handling link request")
		HandleError(w, &APIError{Code: ErrCodeInternalError, Message: "An internal error occurred"}, http.StatusInternalServerError)
	}
}
