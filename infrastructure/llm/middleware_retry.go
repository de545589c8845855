package llm

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Defaults for the retry middleware installed by the service wiring.
const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultRetryMaxDelay  = 8 * time.Second
)

// retryGenerator re-sends transiently failed requests with jittered
// exponential backoff.
type retryGenerator struct {
	next      Generator
	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration
}

// RetryMiddleware retries requests whose failures classify as retryable
// (see ProviderError.Retryable). Auth and validation failures pass
// through on the first attempt. Backoff doubles per attempt with ±25%
// jitter, capped at maxDelay, and respects context cancellation.
func RetryMiddleware(attempts int, baseDelay, maxDelay time.Duration) Middleware {
	if attempts < 1 {
		attempts = 1
	}
	return func(next Generator) Generator {
		return &retryGenerator{
			next:      next,
			attempts:  attempts,
			baseDelay: baseDelay,
			maxDelay:  maxDelay,
		}
	}
}

func (r *retryGenerator) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Completion{}, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}

		completion, err := r.next.Generate(ctx, prompt, opts)
		if err == nil {
			return completion, nil
		}
		if !IsRetryable(err) {
			return Completion{}, err
		}
		lastErr = err
	}
	return Completion{}, fmt.Errorf("request failed after %d attempts: %w", r.attempts, lastErr)
}

// backoff returns the delay before the given attempt: exponential from
// baseDelay with ±25% jitter, capped at maxDelay.
func (r *retryGenerator) backoff(attempt int) time.Duration {
	delay := r.baseDelay << (attempt - 1)
	if delay > r.maxDelay || delay <= 0 {
		delay = r.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2+1)) - delay/4
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return delay
}

func (r *retryGenerator) Model() string { return r.next.Model() }
