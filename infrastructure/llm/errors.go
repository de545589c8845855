package llm

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared across providers.
var (
	// ErrEmptyAPIKey means a provider was configured without credentials.
	ErrEmptyAPIKey = errors.New("API key is required")

	// ErrEmptyResponse means the provider answered with no usable text.
	ErrEmptyResponse = errors.New("provider returned an empty response")
)

// ErrorType classifies a provider failure. The retry middleware and the
// metrics labels both key off it.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAuth
	ErrorTypeInvalidRequest
	ErrorTypeContentPolicy
	ErrorTypeRateLimit
	ErrorTypeServer
	ErrorTypeNetwork
	ErrorTypeTimeout
	ErrorTypeCanceled
)

// String returns the label used in logs and metric dimensions.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeInvalidRequest:
		return "invalid_request"
	case ErrorTypeContentPolicy:
		return "content_policy"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeServer:
		return "server"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ProviderError is the uniform failure shape every provider returns, so
// callers classify errors without knowing which SDK produced them.
type ProviderError struct {
	// Provider names the backend that failed.
	Provider string

	// Type classifies the failure.
	Type ErrorType

	// StatusCode is the HTTP status when one was involved, zero otherwise.
	StatusCode int

	// Message is a short human-readable summary.
	Message string

	// Err is the underlying SDK or transport error.
	Err error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (%s, HTTP %d)", e.Provider, e.Message, e.Type, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Type)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could plausibly succeed.
// Rate limits, server errors, network failures, and timeouts qualify;
// auth, validation, and content-policy failures never do.
func (e *ProviderError) Retryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServer, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	}
	return false
}

// NewProviderError builds a classified provider failure.
func NewProviderError(provider string, errType ErrorType, status int, message string, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Type:       errType,
		StatusCode: status,
		Message:    message,
		Err:        err,
	}
}

// ClassifyHTTPError maps an HTTP status from a provider SDK onto a
// ProviderError. Unrecognized statuses classify as unknown.
func ClassifyHTTPError(provider string, status int, message string, err error) *ProviderError {
	var errType ErrorType
	switch {
	case status == 401 || status == 403:
		errType = ErrorTypeAuth
	case status == 400 || status == 404 || status == 422:
		errType = ErrorTypeInvalidRequest
	case status == 429:
		errType = ErrorTypeRateLimit
	case status >= 500:
		errType = ErrorTypeServer
	default:
		errType = ErrorTypeUnknown
	}
	if message == "" {
		message = "request failed"
	}
	return NewProviderError(provider, errType, status, message, err)
}

// ClassifyContextError maps context cancellation and deadline expiry
// onto a ProviderError, and anything else onto a network failure.
func ClassifyContextError(provider string, err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(provider, ErrorTypeTimeout, 0, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(provider, ErrorTypeCanceled, 0, "request canceled", err)
	default:
		return NewProviderError(provider, ErrorTypeNetwork, 0, "request failed", err)
	}
}

// IsRetryable reports whether err is a provider failure another attempt
// could clear. Errors that are not ProviderErrors are never retried.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable()
}
