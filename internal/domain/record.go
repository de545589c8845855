package domain

import (
	"strconv"
	"strings"
	"time"
)

// CandidateRecord is the flat, one-row-per-candidate projection handed to
// storage collaborators. The pipeline itself never persists anything; it
// only guarantees this stable shape.
type CandidateRecord struct {
	// ID is the candidate's UUID.
	ID string `json:"id"`

	// Timestamp is the candidate creation time.
	Timestamp time.Time `json:"timestamp"`

	// Provider and Model identify the generation backend.
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Keywords are the seed terms, order preserved.
	Keywords []string `json:"keywords"`

	// Tone is the requested copy tone.
	Tone string `json:"tone"`

	// HeadlineCount and DescriptionCount are the surviving unit counts.
	HeadlineCount    int `json:"headline_count"`
	DescriptionCount int `json:"description_count"`

	// Headlines and Descriptions are the surviving texts.
	Headlines    []string `json:"headlines"`
	Descriptions []string `json:"descriptions"`

	// Valid mirrors AdCandidate.Accepted at record time.
	Valid bool `json:"valid"`

	// Errors carries the candidate error (if any) followed by advisory
	// policy warnings.
	Errors []string `json:"errors,omitempty"`

	// BatchID links back to the producing batch; empty for one-off
	// candidates.
	BatchID string `json:"batch_id,omitempty"`

	// UsesLocationInsertion records the location-placeholder flag.
	UsesLocationInsertion bool `json:"uses_location_insertion"`

	// Published marks records a collaborator has pushed to a campaign.
	// Always false at creation.
	Published bool `json:"published"`
}

// listSeparator joins multi-valued record fields into a single cell.
// A pipe keeps commas usable inside ad copy.
const listSeparator = " | "

// RecordHeader returns the column names for the flat row form, in the same
// order Row emits values.
func RecordHeader() []string {
	return []string{
		"id", "timestamp", "provider", "model", "keywords", "tone",
		"headline_count", "description_count", "headlines", "descriptions",
		"valid", "errors", "batch_id", "uses_location_insertion", "published",
	}
}

// NewCandidateRecord projects a candidate into its flat record form.
func NewCandidateRecord(c AdCandidate) CandidateRecord {
	var errs []string
	if c.Error != "" {
		errs = append(errs, c.Error)
	}
	errs = append(errs, c.Warnings...)

	return CandidateRecord{
		ID:                    c.ID,
		Timestamp:             c.CreatedAt,
		Provider:              c.Provider,
		Model:                 c.Model,
		Keywords:              c.Keywords,
		Tone:                  c.Tone,
		HeadlineCount:         len(c.Headlines),
		DescriptionCount:      len(c.Descriptions),
		Headlines:             c.Headlines,
		Descriptions:          c.Descriptions,
		Valid:                 c.Accepted(),
		Errors:                errs,
		BatchID:               c.BatchID,
		UsesLocationInsertion: c.UsesLocationInsertion,
	}
}

// Row renders the record as an ordered string slice matching RecordHeader.
// Multi-valued fields are joined with a pipe separator.
func (r CandidateRecord) Row() []string {
	return []string{
		r.ID,
		r.Timestamp.UTC().Format(time.RFC3339),
		r.Provider,
		r.Model,
		strings.Join(r.Keywords, listSeparator),
		r.Tone,
		strconv.Itoa(r.HeadlineCount),
		strconv.Itoa(r.DescriptionCount),
		strings.Join(r.Headlines, listSeparator),
		strings.Join(r.Descriptions, listSeparator),
		strconv.FormatBool(r.Valid),
		strings.Join(r.Errors, listSeparator),
		r.BatchID,
		strconv.FormatBool(r.UsesLocationInsertion),
		strconv.FormatBool(r.Published),
	}
}

// StoreStats summarizes a candidate store's contents for dashboards.
type StoreStats struct {
	// Total is the number of stored records.
	Total int `json:"total"`

	// Valid counts records whose candidate was accepted.
	Valid int `json:"valid"`

	// Published counts records marked as pushed to a campaign.
	Published int `json:"published"`

	// Available counts valid records not yet published.
	Available int `json:"available"`
}
