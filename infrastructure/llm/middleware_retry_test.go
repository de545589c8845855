package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyGenerator fails a fixed number of times before succeeding.
type flakyGenerator struct {
	failures int
	failWith error
	calls    int
}

func (f *flakyGenerator) Generate(context.Context, string, Options) (Completion, error) {
	f.calls++
	if f.calls <= f.failures {
		return Completion{}, f.failWith
	}
	return Completion{Text: "ok"}, nil
}

func (f *flakyGenerator) Model() string { return "flaky-model" }

func retryFast(attempts int) Middleware {
	return RetryMiddleware(attempts, time.Millisecond, 5*time.Millisecond)
}

func TestRetryMiddleware_RecoversFromTransientFailure(t *testing.T) {
	flaky := &flakyGenerator{
		failures: 2,
		failWith: NewProviderError("openai", ErrorTypeServer, 503, "overloaded", nil),
	}
	gen := retryFast(3)(flaky)

	completion, err := gen.Generate(context.Background(), "hola", Options{})
	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Text)
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryMiddleware_GivesUpAfterMaxAttempts(t *testing.T) {
	cause := NewProviderError("openai", ErrorTypeRateLimit, 429, "quota", nil)
	flaky := &flakyGenerator{failures: 10, failWith: cause}
	gen := retryFast(3)(flaky)

	_, err := gen.Generate(context.Background(), "hola", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, flaky.calls)
}

func TestRetryMiddleware_PermanentFailureIsNotRetried(t *testing.T) {
	cause := NewProviderError("openai", ErrorTypeAuth, 401, "bad key", nil)
	flaky := &flakyGenerator{failures: 10, failWith: cause}
	gen := retryFast(3)(flaky)

	_, err := gen.Generate(context.Background(), "hola", Options{})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, flaky.calls, "auth failures get exactly one attempt")
}

func TestRetryMiddleware_StopsOnContextCancel(t *testing.T) {
	flaky := &flakyGenerator{
		failures: 10,
		failWith: NewProviderError("openai", ErrorTypeServer, 503, "overloaded", nil),
	}
	gen := RetryMiddleware(5, time.Minute, time.Minute)(flaky)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := gen.Generate(ctx, "hola", Options{})
		done <- err
	}()

	// Let the first attempt fail, then cancel during backoff.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, flaky.calls)
	case <-time.After(time.Second):
		t.Fatal("retry loop ignored cancellation")
	}
}

func TestRetryMiddleware_MinimumOneAttempt(t *testing.T) {
	flaky := &flakyGenerator{failures: 0}
	gen := RetryMiddleware(0, time.Millisecond, time.Millisecond)(flaky)

	_, err := gen.Generate(context.Background(), "hola", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, flaky.calls)
}

func TestRetryMiddleware_ModelDelegates(t *testing.T) {
	gen := retryFast(3)(&flakyGenerator{})
	assert.Equal(t, "flaky-model", gen.Model())
}

func TestRetryMiddleware_WrappedErrorStaysClassified(t *testing.T) {
	cause := NewProviderError("google", ErrorTypeTimeout, 0, "request timed out", nil)
	flaky := &flakyGenerator{failures: 10, failWith: cause}
	gen := retryFast(2)(flaky)

	_, err := gen.Generate(context.Background(), "hola", Options{})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ErrorTypeTimeout, pe.Type)
}
