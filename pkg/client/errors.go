package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorClass represents a classification of origin failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures (refused, reset, DNS, timeout).
	ErrorClassNetwork ErrorClass = "network"
)

// FetchError is a failed origin fetch. Only transport failures produce
// one; HTTP error statuses are returned as ordinary responses.
type FetchError struct {
	Class  ErrorClass
	Method string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("origin %s error: %s %s: %v", e.Class, e.Method, e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err is a transport failure reaching the origin.
func IsNetworkError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Class == ErrorClassNetwork
}

// classifyStatus maps a response status to an error class, or "" for success.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 500:
		return ErrorClassServer
	case status >= 400:
		return ErrorClassClient
	default:
		return ""
	}
}

// shouldRetry determines if an error class is worth another attempt.
// Status classes are never retried: the origin answered.
func shouldRetry(errorClass ErrorClass) bool {
	return errorClass == ErrorClassNetwork
}
