package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrCancelled is returned when the caller's context is cancelled
	// while a request is in flight. Callers treat this as expected
	// churn, never as a failure.
	ErrCancelled = errors.New("request cancelled")

	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrNotFound is returned when the collection has no record for the
	// requested identifier.
	ErrNotFound = errors.New("course not found")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network and timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassCancelled represents cooperative cancellation.
	ErrorClassCancelled ErrorClass = "cancelled"
)

// APIError represents a remote collection failure with classification
// context.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("catalog %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err represents cooperative cancellation
// rather than a genuine failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// classify categorizes a transport error or response status.
func classify(resp *http.Response, err error) ErrorClass {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return ErrorClassCancelled
		}
		// Deadline and network failures are both generic failures; a
		// timeout must never masquerade as cancellation.
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
			return ErrorClassNetwork
		}
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 500:
		return ErrorClassServer
	case resp.StatusCode >= 400:
		return ErrorClassClient
	default:
		return ""
	}
}

// shouldRetry determines if an error class warrants another attempt.
// Client errors and cancellation never retry.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
