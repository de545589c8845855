package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// pacedGenerator holds requests behind a token-bucket limiter.
type pacedGenerator struct {
	next    Generator
	limiter *rate.Limiter
}

// RateLimitMiddleware paces requests to at most rpm per minute with the
// given burst. It is the provider-side guard matching the pipeline's
// own pacing: even a caller that bypasses the orchestrator cannot hammer
// a provider quota. A non-positive rpm disables the limiter.
func RateLimitMiddleware(rpm float64, burst int) Middleware {
	return func(next Generator) Generator {
		if rpm <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &pacedGenerator{
			next:    next,
			limiter: rate.NewLimiter(rate.Limit(rpm/60.0), burst),
		}
	}
}

func (p *pacedGenerator) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Completion{}, err
	}
	return p.next.Generate(ctx, prompt, opts)
}

func (p *pacedGenerator) Model() string { return p.next.Model() }
