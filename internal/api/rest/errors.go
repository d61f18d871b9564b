package rest

import (
	"encoding/json"
	"net/http"
)

// APIError is the structured error envelope for every non-2xx response.
type APIError struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes returned by the API.
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeMissingCredentials = "MISSING_CREDENTIALS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountInactive    = "ACCOUNT_INACTIVE"
	ErrCodeAccountLocked      = "ACCOUNT_LOCKED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUpstreamError      = "UPSTREAM_ERROR"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError sends a structured error response with optional details.
func respondError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	respondJSON(w, status, APIError{
		Error:   message,
		Code:    code,
		Details: details,
	})
}
