package domain

import (
	"time"
)

// Candidate error messages recorded by the assembler and orchestrator.
// They are data, not Go errors: a failed candidate is still part of its
// batch and carries the reason it was rejected.
const (
	// ErrMsgParseFailure indicates the provider response could not be
	// interpreted as structured headline/description data.
	ErrMsgParseFailure = "parse failure"

	// ErrMsgInsufficientHeadlines indicates fewer than the minimum number
	// of headlines survived validation and deduplication.
	ErrMsgInsufficientHeadlines = "insufficient valid headlines"

	// ErrMsgInsufficientDescriptions indicates fewer than the minimum
	// number of descriptions survived validation and deduplication.
	ErrMsgInsufficientDescriptions = "insufficient valid descriptions"

	// ErrMsgCritical is the generic message recorded when the generation
	// provider itself fails. The underlying cause is logged, never stored,
	// so provider internals do not leak into persisted records.
	ErrMsgCritical = "critical error"

	// ErrMsgBudgetExceeded is recorded on candidates that were never
	// generated because the batch budget ran out first.
	ErrMsgBudgetExceeded = "generation budget exceeded"
)

// MinHeadlines is the minimum number of valid headlines an accepted
// candidate must carry.
const MinHeadlines = 3

// MinDescriptions is the minimum number of valid descriptions an accepted
// candidate must carry.
const MinDescriptions = 2

// AdCandidate is one generated, validated set of ad copy: the headlines and
// descriptions produced by a single provider call, plus the request metadata
// needed to reproduce or audit it.
//
// A candidate with a non-empty Error is unusable but intentionally kept in
// its batch so callers can inspect why it failed. If Error is empty the
// candidate satisfies the acceptance invariant: at least MinHeadlines
// headlines and MinDescriptions descriptions, every entry length-valid.
type AdCandidate struct {
	// ID uniquely identifies this candidate (a UUID).
	ID string `json:"id"`

	// BatchID links the candidate to the batch that produced it.
	// Empty for candidates generated outside a batch.
	BatchID string `json:"batch_id,omitempty"`

	// Headlines holds the validated, deduplicated headline texts in the
	// order the provider produced them (synthesized location headlines,
	// if any, come first).
	Headlines []string `json:"headlines"`

	// Descriptions holds the validated, deduplicated description texts.
	Descriptions []string `json:"descriptions"`

	// Keywords are the search terms that seeded generation.
	Keywords []string `json:"keywords"`

	// Tone is the requested copy tone (e.g. "profesional", "urgente").
	Tone string `json:"tone"`

	// Provider and Model identify the generation backend that produced
	// the raw response.
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// UsesLocationInsertion records whether dynamic location placeholders
	// were requested for this candidate.
	UsesLocationInsertion bool `json:"uses_location_insertion"`

	// VariationSeed distinguishes candidates generated in the same batch;
	// it equals the candidate's index within the batch.
	VariationSeed int `json:"variation_seed"`

	// Warnings lists advisory policy findings (prohibited punctuation,
	// shouting caps, forbidden phrases). They never fail a candidate.
	Warnings []string `json:"warnings,omitempty"`

	// Error is empty for accepted candidates. A non-empty value is one of
	// the ErrMsg constants, possibly with appended detail.
	Error string `json:"error,omitempty"`

	// Score is attached after the fact by a scoring pass; the assembler
	// never sets it.
	Score *ScoreReport `json:"score,omitempty"`

	// CreatedAt records when the assembler finished this candidate.
	CreatedAt time.Time `json:"created_at"`
}

// Accepted reports whether the candidate passed assembly.
func (c *AdCandidate) Accepted() bool { return c.Error == "" }

// GenerationBatch aggregates the candidates produced by one batch request
// under a shared configuration.
//
// Invariants: Successful+Failed == Requested, and Successful equals the
// number of candidates with an empty Error.
type GenerationBatch struct {
	// BatchID uniquely identifies this batch (a UUID assigned at batch
	// start, before any provider call).
	BatchID string `json:"batch_id"`

	// Candidates holds every candidate in variation order, failed ones
	// included.
	Candidates []AdCandidate `json:"candidates"`

	// Requested is the number of candidates asked for.
	Requested int `json:"requested"`

	// Successful counts candidates with an empty Error.
	Successful int `json:"successful"`

	// Failed counts candidates with a non-empty Error.
	Failed int `json:"failed"`

	// StartedAt records when the batch began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the whole batch.
	Elapsed time.Duration `json:"elapsed"`
}

// SuccessRate returns the fraction of requested candidates that were
// accepted, in [0,1]. A batch with zero requests has a rate of zero.
func (b *GenerationBatch) SuccessRate() float64 {
	if b.Requested == 0 {
		return 0
	}
	return float64(b.Successful) / float64(b.Requested)
}
