package errors

import (
	"encoding/json"
	"net/http"
)

// AppError represents an application error with HTTP context
type AppError struct {
	StatusCode int    `json:"status"`
	Message    string `json:"message"`
	Code       string `json:"-"`
	Details    string `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// WriteJSON writes the error as a {status, message} JSON response
func (e *AppError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	json.NewEncoder(w).Encode(e)
}

// ============================================================
// ERROR CONSTRUCTORS
// ============================================================

// Validation Errors (400)
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func InvalidURL(details string) *AppError {
	return &AppError{
		Code:       "INVALID_URL",
		Message:    "Not a valid url",
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

func InvalidJSON(details string) *AppError {
	return &AppError{
		Code:       "INVALID_JSON",
		Message:    "Invalid JSON in request body",
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

func MissingField(field string) *AppError {
	return &AppError{
		Code:       "MISSING_FIELD",
		Message:    "Use the argument `" + field + "`",
		StatusCode: http.StatusBadRequest,
	}
}

// Not Found Errors (404)
func NotFound() *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    "Not Found",
		StatusCode: http.StatusNotFound,
	}
}

// Rate Limit Error (429)
func RateLimitExceeded() *AppError {
	return &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "API limit reached",
		StatusCode: http.StatusTooManyRequests,
	}
}

// Server Errors (500)

// Internal carries the underlying error text as the message, the way the
// API reports store failures to clients.
func Internal(details string) *AppError {
	msg := details
	if msg == "" {
		msg = "An internal server error occurred"
	}
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    msg,
		StatusCode: http.StatusInternalServerError,
	}
}

func DatabaseError(err error) *AppError {
	return &AppError{
		Code:       "DATABASE_ERROR",
		Message:    err.Error(),
		StatusCode: http.StatusInternalServerError,
	}
}
