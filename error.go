package search_gateway

import (
	"fmt"
	"net/http"
)

// SearchError represents an error that can be returned to the client
type SearchError struct {
	Code       int
	Message    string
	Type       string
	Param      string
	InnerError error
}

// Error implements the error interface
func (e *SearchError) Error() string {
	if e.InnerError != nil {
		return fmt.Sprintf("%s: %s (inner: %v)", e.Type, e.Message, e.InnerError)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse represents the JSON error body returned to clients
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail represents the error detail in the response body
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ToResponse converts the SearchError to a client-facing error response
func (e *SearchError) ToResponse() *ErrorResponse {
	return &ErrorResponse{
		Error: &ErrorDetail{
			Message: e.Message,
			Type:    e.Type,
			Param:   e.Param,
			Code:    http.StatusText(e.Code),
		},
	}
}

// NewAuthenticationError creates a new authentication error (401)
func NewAuthenticationError(message string) *SearchError {
	return &SearchError{
		Code:    http.StatusUnauthorized,
		Message: message,
		Type:    "authentication_error",
	}
}

// NewValidationError creates a new validation error (400)
func NewValidationError(message string) *SearchError {
	return &SearchError{
		Code:    http.StatusBadRequest,
		Message: message,
		Type:    "invalid_request_error",
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string) *SearchError {
	return &SearchError{
		Code:    http.StatusNotFound,
		Message: message,
		Type:    "invalid_request_error",
	}
}

// NewMethodNotAllowedError creates a new method not allowed error (405)
func NewMethodNotAllowedError(message string) *SearchError {
	return &SearchError{
		Code:    http.StatusMethodNotAllowed,
		Message: message,
		Type:    "invalid_request_error",
	}
}

// NewRateLimitError creates a new rate limit error (429)
func NewRateLimitError(message string) *SearchError {
	return &SearchError{
		Code:    http.StatusTooManyRequests,
		Message: message,
		Type:    "rate_limit_error",
	}
}

// NewQuotaExceededError creates a new quota exceeded error (429)
func NewQuotaExceededError(message string) *SearchError {
	return &SearchError{
		Code:    http.StatusTooManyRequests,
		Message: message,
		Type:    "quota_exceeded_error",
	}
}

// NewProviderError creates a new provider error (502)
func NewProviderError(message string, inner error) *SearchError {
	return &SearchError{
		Code:       http.StatusBadGateway,
		Message:    message,
		Type:       "api_error",
		InnerError: inner,
	}
}
