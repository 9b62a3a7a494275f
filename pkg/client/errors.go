package client

import (
	"errors"
	"fmt"
)

// networkErrorMessage is the message of every transport-level failure.
const networkErrorMessage = "network error"

// APIError is a failed API call. Status 0 means no response was received;
// any other status is the HTTP status the server rejected the request with.
type APIError struct {
	Status  int
	Message string
	// Errors holds field-level validation messages, when the server sent any.
	Errors map[string][]string
	Err    error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsStatus returns true if err (or any wrapped error) is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == code
	}
	return false
}

// IsNetwork reports whether err is a transport failure with no server response.
func IsNetwork(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 0
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or -1 when err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return -1
}
