// Package errors provides custom error types for the FitBuddy clients and server.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrRequestFailed   = errors.New("request failed")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoBody          = errors.New("no response body")
)

// GenericFailure is shown when an endpoint fails without a readable error payload.
const GenericFailure = "Failed to get response"

// APIError represents a non-success response from an endpoint.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return GenericFailure
	}
	return e.Message
}

// Detail includes the status code and endpoint, for logs.
func (e *APIError) Detail() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Error())
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Error())
}

// Is matches ErrRequestFailed for every APIError and ErrRateLimited for 429s.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRequestFailed:
		return true
	case ErrRateLimited:
		return e.StatusCode == 429
	}
	_, ok := target.(*APIError)
	return ok
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// FrameError reports a stream that could not be decoded into frames.
type FrameError struct {
	Message  string
	Buffered int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("stream decode error: %s (%d bytes buffered)", e.Message, e.Buffered)
}

// Is matches ErrInvalidResponse.
func (e *FrameError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*FrameError)
	return ok
}

// NewFrameError creates a new FrameError
func NewFrameError(message string, buffered int) *FrameError {
	return &FrameError{Message: message, Buffered: buffered}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}
