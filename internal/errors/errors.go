package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP context
type AppError struct {
	Message    string
	Fields     map[string]string // field -> message, for validation failures
	StatusCode int
}

func (e *AppError) Error() string {
	return e.Message
}

// Body is the JSON body written for the error: either {"error": message}
// or, for validation failures, a field -> message map
func (e *AppError) Body() map[string]string {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	return map[string]string{"error": e.Message}
}

// WriteJSON writes the error as JSON response
func (e *AppError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	json.NewEncoder(w).Encode(e.Body())
}

// ============================================================
// ERROR CONSTRUCTORS
// ============================================================

// Validation Errors (400)
func BadRequest(message string) *AppError {
	return &AppError{
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func InvalidJSON(details string) *AppError {
	return BadRequest("Invalid JSON in request body: " + details)
}

func Validation(fields map[string]string) *AppError {
	return &AppError{
		Message:    "Validation failed",
		Fields:     fields,
		StatusCode: http.StatusBadRequest,
	}
}

func AliasTaken(alias string) *AppError {
	return BadRequest("Custom alias is already taken: " + alias)
}

// Not Found Errors (404)
func NotFound(resource string) *AppError {
	return &AppError{
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func AliasNotFound(alias string) *AppError {
	return &AppError{
		Message:    "Alias not found: " + alias,
		StatusCode: http.StatusNotFound,
	}
}

func MethodNotAllowed(method string) *AppError {
	return &AppError{
		Message:    fmt.Sprintf("Method %s not allowed", method),
		StatusCode: http.StatusMethodNotAllowed,
	}
}

// Server Errors (5xx)
func Internal(details string) *AppError {
	return &AppError{
		Message:    "An unexpected error occurred: " + details,
		StatusCode: http.StatusInternalServerError,
	}
}

func Unavailable(details string) *AppError {
	return &AppError{
		Message:    "Service unavailable: " + details,
		StatusCode: http.StatusServiceUnavailable,
	}
}
