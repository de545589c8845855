package llm

import (
	"context"
	"errors"
	"time"

	"github.com/ahrav/go-copyforge/internal/ports"
)

// measuredGenerator records latency, outcome, and token counters for
// every provider attempt. Installed innermost so each retry attempt is
// measured individually.
type measuredGenerator struct {
	next      Generator
	collector ports.MetricsCollector
}

// MetricsMiddleware records provider request metrics through the given
// collector. Requests are labeled by model and outcome; failures carry
// their ProviderError classification as the status.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next Generator) Generator {
		return &measuredGenerator{next: next, collector: collector}
	}
}

func (m *measuredGenerator) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	start := time.Now()
	completion, err := m.next.Generate(ctx, prompt, opts)

	labels := map[string]string{
		"model":  opts.modelOrDefault(m.next.Model()),
		"status": statusOf(err),
	}

	if m.collector != nil {
		m.collector.RecordHistogram("provider_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("provider_requests_total", 1, labels)

		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("provider_tokens_total", float64(completion.TokensIn), labels)
			labels["token_type"] = "output"
			m.collector.RecordCounter("provider_tokens_total", float64(completion.TokensOut), labels)
		}
	}

	return completion, err
}

func (m *measuredGenerator) Model() string { return m.next.Model() }

// statusOf maps an outcome onto the status metric label.
func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Type.String()
	}
	return "error"
}
