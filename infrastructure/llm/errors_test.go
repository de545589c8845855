package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError_Error(t *testing.T) {
	withStatus := NewProviderError("openai", ErrorTypeRateLimit, 429, "too many requests", nil)
	assert.Equal(t, "openai: too many requests (rate_limit, HTTP 429)", withStatus.Error())

	withoutStatus := NewProviderError("google", ErrorTypeTimeout, 0, "request timed out", nil)
	assert.Equal(t, "google: request timed out (timeout)", withoutStatus.Error())
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewProviderError("anthropic", ErrorTypeNetwork, 0, "request failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestProviderError_Retryable(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrorTypeRateLimit, true},
		{ErrorTypeServer, true},
		{ErrorTypeNetwork, true},
		{ErrorTypeTimeout, true},
		{ErrorTypeAuth, false},
		{ErrorTypeInvalidRequest, false},
		{ErrorTypeContentPolicy, false},
		{ErrorTypeCanceled, false},
		{ErrorTypeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.errType.String(), func(t *testing.T) {
			err := NewProviderError("openai", tt.errType, 0, "msg", nil)
			assert.Equal(t, tt.want, err.Retryable())
		})
	}
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{400, ErrorTypeInvalidRequest},
		{404, ErrorTypeInvalidRequest},
		{422, ErrorTypeInvalidRequest},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServer},
		{503, ErrorTypeServer},
		{418, ErrorTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("HTTP %d", tt.status), func(t *testing.T) {
			err := ClassifyHTTPError("openai", tt.status, "boom", nil)
			assert.Equal(t, tt.want, err.Type)
			assert.Equal(t, tt.status, err.StatusCode)
		})
	}
}

func TestClassifyHTTPError_EmptyMessage(t *testing.T) {
	err := ClassifyHTTPError("google", 500, "", nil)
	assert.Equal(t, "request failed", err.Message)
}

func TestClassifyContextError(t *testing.T) {
	deadline := ClassifyContextError("openai", context.DeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, deadline.Type)

	canceled := ClassifyContextError("openai", context.Canceled)
	assert.Equal(t, ErrorTypeCanceled, canceled.Type)

	other := ClassifyContextError("openai", errors.New("dial tcp: refused"))
	assert.Equal(t, ErrorTypeNetwork, other.Type)
}

func TestIsRetryable(t *testing.T) {
	retryable := NewProviderError("openai", ErrorTypeServer, 503, "overloaded", nil)
	assert.True(t, IsRetryable(retryable))

	// Classification survives wrapping.
	wrapped := fmt.Errorf("attempt 2: %w", retryable)
	assert.True(t, IsRetryable(wrapped))

	permanent := NewProviderError("openai", ErrorTypeAuth, 401, "bad key", nil)
	assert.False(t, IsRetryable(permanent))

	require.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}
