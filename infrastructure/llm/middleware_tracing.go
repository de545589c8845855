package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedGenerator runs each request inside an OpenTelemetry span
// carrying the service name, model, prompt size, and token usage.
type tracedGenerator struct {
	next        Generator
	serviceName string
	tracer      trace.Tracer
}

// TracingMiddleware adds distributed tracing to provider requests.
// Spans are emitted through the globally registered tracer provider;
// with no provider installed the middleware is a pass-through.
func TracingMiddleware(serviceName string) Middleware {
	return func(next Generator) Generator {
		return &tracedGenerator{
			next:        next,
			serviceName: serviceName,
			tracer:      otel.Tracer("llm-client"),
		}
	}
}

// Generate executes the request within a trace span. Errors are recorded
// on the span but returned unmodified so upstream handling keeps working.
func (t *tracedGenerator) Generate(ctx context.Context, prompt string, opts Options) (Completion, error) {
	ctx, span := t.tracer.Start(ctx, "llm.generate",
		trace.WithAttributes(
			attribute.String("service.name", t.serviceName),
			attribute.String("llm.model", opts.modelOrDefault(t.next.Model())),
			attribute.Int("llm.prompt.length", len(prompt)),
		),
	)
	defer span.End()

	completion, err := t.next.Generate(ctx, prompt, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("llm.tokens.input", completion.TokensIn),
			attribute.Int("llm.tokens.output", completion.TokensOut),
		)
	}

	return completion, err
}

func (t *tracedGenerator) Model() string { return t.next.Model() }
