package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-copyforge/internal/domain"
)

// LLMClient defines the interface for interacting with Large Language
// Model providers.
// Implementations should handle provider-specific details like authentication,
// request formatting, and response parsing.
type LLMClient interface {
	// Complete sends a completion request to the LLM provider.
	// It returns the generated text and any error encountered.
	// The implementation should handle rate limiting, retries, and timeouts.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadline propagation
	//   - prompt: The input prompt for the LLM
	//   - options: Provider-specific options (temperature, max tokens, etc.)
	//
	// The options map allows flexibility for different providers without
	// changing the interface. Common options include:
	//   - "temperature": float64 (0.0-1.0)
	//   - "max_tokens": int
	//   - "model": string (specific model version)
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens calculates the approximate token count for a given text.
	// This is useful for cost estimation and staying within model limits.
	// The estimation method may vary by provider.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier being used by this client.
	// This is useful for logging and debugging purposes.
	GetModel() string
}

// CandidateStore defines the interface for persisting candidate records.
// Implementations could use a relational database, a spreadsheet backend,
// or in-memory storage. The pipeline only depends on this shape; it never
// persists anything itself.
type CandidateStore interface {
	// Save appends a candidate record. Saving the same ID twice is an
	// implementation decision (overwrite or error); callers generate
	// unique IDs and never rely on either behavior.
	Save(ctx context.Context, record domain.CandidateRecord) error

	// List returns up to limit records, newest first. A non-positive
	// limit returns every record.
	List(ctx context.Context, limit int) ([]domain.CandidateRecord, error)

	// MarkPublished flags a record as pushed to a live campaign, recording
	// where it went. Returns domain.ErrRecordNotFound for unknown IDs.
	MarkPublished(ctx context.Context, id, campaignID, adGroupID string) error

	// Stats summarizes the store's contents.
	Stats(ctx context.Context) (domain.StoreStats, error)
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus,
// OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like provider errors, dropped
	// headlines, budget rejections, etc.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like in-flight generations.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like headline counts and
	// CTR scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
