package llm

// DefaultMaxTokens caps completion length when a request does not set
// its own limit. Ad-copy payloads are small; this leaves ample room for
// fifteen headlines and four descriptions of JSON.
const DefaultMaxTokens = 2048

// Options are the per-request knobs a provider call honors. The zero
// value means "use the provider's defaults". Pointer fields distinguish
// "unset" from a deliberate zero, which matters for temperature.
type Options struct {
	// Model overrides the provider's configured model for this call.
	Model string

	// System is prepended as a system instruction when the provider
	// supports one.
	System string

	// MaxTokens caps the completion length. Zero falls back to
	// DefaultMaxTokens.
	MaxTokens int

	// Temperature controls sampling randomness, provider range 0 to 2.
	Temperature *float64

	// TopP controls nucleus sampling, range 0 to 1.
	TopP *float64
}

// parseOptions converts the pipeline's option map into typed Options.
// Unknown keys and out-of-range values are dropped rather than erroring:
// a bad sampling knob should not fail a generation.
func parseOptions(m map[string]any) Options {
	var o Options
	if v, ok := m["model"].(string); ok && v != "" {
		o.Model = v
	}
	if v, ok := m["system"].(string); ok && v != "" {
		o.System = v
	}
	if v, ok := m["max_tokens"].(int); ok && v > 0 {
		o.MaxTokens = v
	}
	if v, ok := asFloat(m["temperature"]); ok && v >= 0 && v <= 2 {
		o.Temperature = &v
	}
	if v, ok := asFloat(m["top_p"]); ok && v >= 0 && v <= 1 {
		o.TopP = &v
	}
	return o
}

// asFloat widens the numeric types callers plausibly put in an option map.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

// maxTokensOrDefault resolves the effective completion cap.
func (o Options) maxTokensOrDefault() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return DefaultMaxTokens
}

// modelOrDefault resolves the effective model for a call.
func (o Options) modelOrDefault(configured string) string {
	if o.Model != "" {
		return o.Model
	}
	return configured
}

// clampFloat bounds v to [lo, hi].
func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
