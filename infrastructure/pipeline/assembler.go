package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahrav/go-copyforge/internal/domain"
	"github.com/ahrav/go-copyforge/internal/ports"
)

// providerResponse is the JSON shape demanded from the LLM. Anything the
// provider adds beyond these fields is ignored.
type providerResponse struct {
	Headlines    []string `json:"headlines"`
	Descriptions []string `json:"descriptions"`
}

// AssembleInput carries the request metadata the assembler stamps onto the
// candidate it builds. The raw provider response is passed separately.
type AssembleInput struct {
	BatchID               string
	Keywords              []string
	Tone                  string
	Provider              string
	Model                 string
	UsesLocationInsertion bool
	VariationSeed         int
}

// Assembler converts a raw provider completion into a validated
// AdCandidate. It runs the fixed stage order parse, normalize, clean,
// filter, deduplicate, threshold; a failure at any stage produces a failed
// candidate carrying the stage's error message rather than a Go error, so
// one bad completion never aborts a batch.
//
// The assembler is stateless and safe for concurrent use.
type Assembler struct {
	lengths LengthPolicy
	dedupe  DedupePolicy
	policy  *PolicyChecker
	logger  *zap.Logger
	metrics ports.MetricsCollector
}

// NewAssembler builds an assembler from the given policies. A nil policy
// checker disables advisory checks; a nil logger falls back to a no-op
// logger; a nil metrics collector disables instrumentation.
func NewAssembler(
	lengths LengthPolicy,
	dedupe DedupePolicy,
	policy *PolicyChecker,
	logger *zap.Logger,
	metrics ports.MetricsCollector,
) (*Assembler, error) {
	if err := lengths.Validate(); err != nil {
		return nil, err
	}
	if err := dedupe.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		lengths: lengths,
		dedupe:  dedupe,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Assemble runs the full stage order over a raw provider response and
// returns the finished candidate. The returned candidate always carries an
// ID, the input metadata, and a creation timestamp; on failure its Error
// field names the failing stage.
func (a *Assembler) Assemble(raw string, in AssembleInput) domain.AdCandidate {
	c := domain.AdCandidate{
		ID:                    uuid.NewString(),
		BatchID:               in.BatchID,
		Keywords:              in.Keywords,
		Tone:                  in.Tone,
		Provider:              in.Provider,
		Model:                 in.Model,
		UsesLocationInsertion: in.UsesLocationInsertion,
		VariationSeed:         in.VariationSeed,
		CreatedAt:             time.Now().UTC(),
	}

	// Parse.
	resp, err := a.parse(raw)
	if err != nil {
		a.logger.Warn("provider response unparseable",
			zap.String("candidate_id", c.ID),
			zap.Int("response_len", len(raw)),
			zap.Error(err))
		a.count("pipeline_parse_failures_total", in.Provider)
		c.Error = domain.ErrMsgParseFailure
		return c
	}

	// Normalize: guarantee location coverage before any filtering so the
	// synthesized headlines go through the same validation as the rest.
	headlines := resp.Headlines
	if in.UsesLocationInsertion {
		headlines = EnforceLocationHeadlines(headlines, in.Keywords, a.lengths.HeadlineMaxSubstituted)
	}

	// Clean.
	headlines = CleanAll(headlines)
	descriptions := CleanAll(resp.Descriptions)

	// Filter.
	headlines, droppedH := a.lengths.FilterHeadlines(headlines)
	descriptions, droppedD := a.lengths.FilterDescriptions(descriptions)
	for _, h := range droppedH {
		a.logger.Debug("headline dropped for length",
			zap.String("candidate_id", c.ID), zap.String("headline", h))
	}
	for _, d := range droppedD {
		a.logger.Debug("description dropped for length",
			zap.String("candidate_id", c.ID), zap.String("description", d))
	}
	a.countN("pipeline_texts_dropped_total", in.Provider, len(droppedH)+len(droppedD))

	// Deduplicate.
	headlines = a.dedupe.Dedupe(headlines)
	descriptions = a.dedupe.Dedupe(descriptions)

	// Threshold.
	if len(headlines) < domain.MinHeadlines {
		c.Headlines = headlines
		c.Descriptions = descriptions
		c.Error = domain.ErrMsgInsufficientHeadlines
		a.count("pipeline_threshold_failures_total", in.Provider)
		return c
	}
	if len(descriptions) < domain.MinDescriptions {
		c.Headlines = headlines
		c.Descriptions = descriptions
		c.Error = domain.ErrMsgInsufficientDescriptions
		a.count("pipeline_threshold_failures_total", in.Provider)
		return c
	}

	c.Headlines = headlines
	c.Descriptions = descriptions

	// Advisory policy findings never fail a candidate.
	if a.policy != nil {
		c.Warnings = append(a.policy.CheckAll(headlines), a.policy.CheckAll(descriptions)...)
	}

	if a.metrics != nil {
		a.metrics.RecordHistogram("pipeline_headlines_per_candidate",
			float64(len(headlines)), map[string]string{"provider": in.Provider})
	}
	return c
}

// parse extracts and decodes the JSON payload from a raw completion.
func (a *Assembler) parse(raw string) (providerResponse, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return providerResponse{}, ErrNoJSON
	}

	var resp providerResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return providerResponse{}, fmt.Errorf("decoding provider JSON (%d chars): %w", len(jsonStr), err)
	}
	if len(resp.Headlines) == 0 && len(resp.Descriptions) == 0 {
		return providerResponse{}, fmt.Errorf("provider JSON carries no headlines or descriptions")
	}
	return resp, nil
}

func (a *Assembler) count(metric, provider string) { a.countN(metric, provider, 1) }

func (a *Assembler) countN(metric, provider string, n int) {
	if a.metrics == nil || n == 0 {
		return
	}
	a.metrics.RecordCounter(metric, float64(n), map[string]string{"provider": provider})
}

// extractJSON attempts to extract JSON from a response that might contain
// additional text before or after the JSON object.
// It handles various response formats including markdown code blocks and
// text surrounding the JSON object.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	// First, try to extract from markdown code blocks
	if strings.Contains(response, "```json") {
		start := strings.Index(response, "```json")
		if start != -1 {
			start += 7 // Move past "```json"
			end := strings.Index(response[start:], "```")
			if end != -1 {
				return strings.TrimSpace(response[start : start+end])
			}
		}
	}

	// Also check for generic code blocks
	if strings.Contains(response, "```") {
		start := strings.Index(response, "```")
		if start != -1 {
			start += 3 // Move past "```"
			// Skip any language identifier
			newlineIdx := strings.Index(response[start:], "\n")
			if newlineIdx != -1 {
				start += newlineIdx + 1
			}
			end := strings.Index(response[start:], "```")
			if end != -1 {
				candidate := strings.TrimSpace(response[start : start+end])
				// Check if it looks like JSON
				if strings.HasPrefix(candidate, "{") {
					return candidate
				}
			}
		}
	}

	// Look for JSON object boundaries
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Find the matching closing brace, handling nested objects and strings
	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(response); i++ {
		char := response[i]

		// Handle escape sequences
		if escapeNext {
			escapeNext = false
			continue
		}

		if char == '\\' {
			escapeNext = true
			continue
		}

		// Track string boundaries
		if char == '"' && !escapeNext {
			inString = !inString
			continue
		}

		// Only count braces outside of strings
		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return response[start : i+1]
				}
			}
		}
	}

	return ""
}
