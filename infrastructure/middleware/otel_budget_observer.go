// Package middleware provides cross-cutting concerns for the generation
// pipeline.
package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-copyforge/internal/ports"
)

var _ BudgetObserver = (*OTelBudgetObserver)(nil)

// OTelBudgetObserver implements observability for budget operations using
// OpenTelemetry events and a metrics collector. Each hook emits a short
// span carrying the budget state, plus gauges for remaining capacity.
type OTelBudgetObserver struct {
	metrics ports.MetricsCollector
	scope   string
	tracer  trace.Tracer
}

// NewOTelBudgetObserver creates an observer. scope identifies the budget
// owner (typically a batch or campaign label) in spans and metric labels.
func NewOTelBudgetObserver(metrics ports.MetricsCollector, scope string) *OTelBudgetObserver {
	return &OTelBudgetObserver{
		metrics: metrics,
		scope:   scope,
		tracer:  otel.Tracer("budget-manager"),
	}
}

// Reserved implements the BudgetObserver interface. It records the
// post-reservation state and threshold warnings.
func (o *OTelBudgetObserver) Reserved(usage Usage, budget Budget) {
	_, span := o.tracer.Start(context.Background(), "BudgetManager.Reserve")
	defer span.End()

	o.addSpanAttributes(span, usage, budget)
	o.checkBudgetThresholds(span, usage, budget)
	o.updateMetrics(usage, budget)
	span.SetStatus(codes.Ok, "reservation accepted")
}

// Rejected implements the BudgetObserver interface. It records the refusal
// with the limit that was hit.
func (o *OTelBudgetObserver) Rejected(limitType string, limit, attempted int64, budget Budget) {
	_, span := o.tracer.Start(context.Background(), "BudgetManager.Reserve")
	defer span.End()

	span.AddEvent("budget.exceeded", trace.WithAttributes(
		attribute.String("limit_type", limitType),
		attribute.Int64("limit_value", limit),
		attribute.Int64("attempted_value", attempted),
	))
	span.SetStatus(codes.Error, "budget limit exceeded")

	if o.metrics != nil {
		labels := o.createMetricLabels(budget)
		labels["limit_type"] = limitType
		o.metrics.RecordCounter("budget_exceeded_total", 1, labels)
	}
}

// Committed implements the BudgetObserver interface. It records actual
// consumption after a call completes.
func (o *OTelBudgetObserver) Committed(usage Usage, budget Budget) {
	_, span := o.tracer.Start(context.Background(), "BudgetManager.Commit")
	defer span.End()

	o.addSpanAttributes(span, usage, budget)
	span.AddEvent("budget.usage_tracked", trace.WithAttributes(
		attribute.Int64("tokens_consumed", usage.Tokens),
		attribute.Int64("calls_made", usage.Calls),
	))
	o.updateMetrics(usage, budget)
	span.SetStatus(codes.Ok, "usage committed")
}

// addSpanAttributes sets OpenTelemetry span attributes for budget tracking.
// It includes current usage, remaining budget, and configuration info.
func (o *OTelBudgetObserver) addSpanAttributes(span trace.Span, usage Usage, budget Budget) {
	span.SetAttributes(
		attribute.String("budget.scope", o.scope),
		attribute.Int64("budget.tokens_used", usage.Tokens),
		attribute.Int64("budget.calls_made", usage.Calls),
	)

	if budget.MaxTokens > 0 {
		span.SetAttributes(
			attribute.Int64("budget.max_tokens", budget.MaxTokens),
			attribute.Int64("budget.remaining_tokens", budget.MaxTokens-usage.Tokens),
		)
	}

	if budget.MaxCalls > 0 {
		span.SetAttributes(
			attribute.Int64("budget.max_calls", budget.MaxCalls),
			attribute.Int64("budget.remaining_calls", budget.MaxCalls-usage.Calls),
		)
	}
}

// checkBudgetThresholds examines usage against configurable thresholds and
// generates span events for warning conditions to allow proactive monitoring.
func (o *OTelBudgetObserver) checkBudgetThresholds(span trace.Span, usage Usage, budget Budget) {
	// These thresholds may be configurable in future versions.
	const warningThreshold = 0.8
	const criticalThreshold = 0.9

	if budget.MaxTokens > 0 {
		usagePercentage := float64(usage.Tokens) / float64(budget.MaxTokens)
		if usagePercentage >= criticalThreshold {
			span.AddEvent("budget.threshold.critical", trace.WithAttributes(
				attribute.String("resource_type", "tokens"),
				attribute.Float64("usage_percentage", usagePercentage*100),
			))
		} else if usagePercentage >= warningThreshold {
			span.AddEvent("budget.threshold.warning", trace.WithAttributes(
				attribute.String("resource_type", "tokens"),
				attribute.Float64("usage_percentage", usagePercentage*100),
			))
		}
	}

	if budget.MaxCalls > 0 {
		usagePercentage := float64(usage.Calls) / float64(budget.MaxCalls)
		if usagePercentage >= criticalThreshold {
			span.AddEvent("budget.threshold.critical", trace.WithAttributes(
				attribute.String("resource_type", "calls"),
				attribute.Float64("usage_percentage", usagePercentage*100),
			))
		} else if usagePercentage >= warningThreshold {
			span.AddEvent("budget.threshold.warning", trace.WithAttributes(
				attribute.String("resource_type", "calls"),
				attribute.Float64("usage_percentage", usagePercentage*100),
			))
		}
	}
}

// updateMetrics sends current budget usage to the metrics collector.
func (o *OTelBudgetObserver) updateMetrics(usage Usage, budget Budget) {
	if o.metrics == nil {
		return
	}

	labels := o.createMetricLabels(budget)
	o.metrics.RecordGauge("budget_tokens_used", float64(usage.Tokens), labels)
	o.metrics.RecordGauge("budget_calls_used", float64(usage.Calls), labels)

	if budget.MaxTokens > 0 {
		remaining := budget.MaxTokens - usage.Tokens
		o.metrics.RecordGauge("budget_remaining_tokens", float64(remaining), labels)
	}

	if budget.MaxCalls > 0 {
		remaining := budget.MaxCalls - usage.Calls
		o.metrics.RecordGauge("budget_remaining_calls", float64(remaining), labels)
	}
}

// createMetricLabels creates the standard set of metric labels required
// for observability.
func (o *OTelBudgetObserver) createMetricLabels(budget Budget) map[string]string {
	return map[string]string{
		"budget_limit": o.getBudgetLimitLabel(budget),
		"scope":        o.scope,
	}
}

// getBudgetLimitLabel creates a descriptive label for the current budget limits.
func (o *OTelBudgetObserver) getBudgetLimitLabel(budget Budget) string {
	if budget.MaxTokens > 0 && budget.MaxCalls > 0 {
		return "tokens_and_calls"
	} else if budget.MaxTokens > 0 {
		return "tokens_only"
	} else if budget.MaxCalls > 0 {
		return "calls_only"
	}
	return "unlimited"
}
