package provider

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError is an HTTP or provider-side failure. It is surfaced to callers
// unmodified; the conversational core never wraps or suppresses it.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
	// Body holds the raw response body when it could not be decoded as a
	// provider error object (e.g. an HTML page from a relay).
	Body string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error (HTTP %d): %s", e.StatusCode, e.Body)
}

// IsAPIError checks if an error is a provider API error.
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

func decodeAPIError(statusCode int, body []byte) *APIError {
	var wrapper struct {
		Error ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Message == "" {
		return &APIError{StatusCode: statusCode, Body: string(body)}
	}
	return &APIError{
		StatusCode: statusCode,
		Type:       wrapper.Error.Type,
		Code:       wrapper.Error.Code,
		Message:    wrapper.Error.Message,
	}
}
