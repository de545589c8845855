// Package pipeline turns raw LLM completions into validated ad candidates.
// It owns the stages between a provider response and a usable candidate:
// prompt construction, response parsing, location-placeholder normalization,
// length validation, near-duplicate elimination, advisory policy checks, and
// batch orchestration.
package pipeline

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

// Common errors returned by pipeline stages.
var (
	// ErrEmptyKeywords is returned when a request carries no seed keywords.
	ErrEmptyKeywords = errors.New("at least one keyword is required")

	// ErrNoJSON is returned when no JSON object can be located in a
	// provider response.
	ErrNoJSON = errors.New("no valid JSON found in provider response")

	// ErrNilClient is returned when an orchestrator is built without a
	// provider client.
	ErrNilClient = errors.New("LLM client cannot be nil")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// foldCaser is a package-level Unicode case folder used wherever the
// pipeline compares text case-insensitively. A single instance avoids
// re-allocating a caser per comparison.
var foldCaser = cases.Fold()
