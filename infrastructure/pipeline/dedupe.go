package pipeline

import (
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultDedupeThreshold is the similarity above which two texts are
// considered duplicates. 0.85 catches reworded near-copies while keeping
// genuinely different angles on the same keywords.
const DefaultDedupeThreshold = 0.85

// DedupePolicy eliminates near-duplicate texts using Levenshtein
// similarity over case-folded strings. Comparison order is first-wins:
// the earlier text survives, later near-copies are dropped, so input
// order is preserved in the output.
//
// Location tokens are exemplar-substituted before comparison. The raw
// tokens differ by only a few runes ("{LOCATION(City)}" vs
// "{LOCATION(Country)}"), which would make distinct location variants
// read as near-duplicates; the substituted forms keep them apart.
type DedupePolicy struct {
	// Threshold is the minimum similarity (0.0-1.0) at which a later
	// text is treated as a duplicate of an earlier one.
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"min=0.0,max=1.0"`
}

// DefaultDedupePolicy returns the standard near-duplicate policy.
func DefaultDedupePolicy() DedupePolicy {
	return DedupePolicy{Threshold: DefaultDedupeThreshold}
}

// Validate checks the policy configuration.
func (p DedupePolicy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("dedupe policy validation failed: %w", err)
	}
	return nil
}

// Dedupe returns texts with near-duplicates removed, preserving first
// occurrences in input order. The operation is idempotent: running it on
// its own output returns the output unchanged.
func (p DedupePolicy) Dedupe(texts []string) []string {
	if len(texts) == 0 {
		return nil
	}

	kept := make([]string, 0, len(texts))
	folded := make([]string, 0, len(texts))

	for _, t := range texts {
		ft := dedupeKey(t)
		duplicate := false
		for _, existing := range folded {
			if similarity(ft, existing) >= p.Threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, t)
			folded = append(folded, ft)
		}
	}
	return kept
}

// IsDuplicate reports whether text is a near-duplicate of any entry in
// existing. Both sides are case-folded before comparison.
func (p DedupePolicy) IsDuplicate(text string, existing []string) bool {
	ft := dedupeKey(text)
	for _, e := range existing {
		if similarity(ft, dedupeKey(e)) >= p.Threshold {
			return true
		}
	}
	return false
}

// dedupeKey is the canonical comparison form: location tokens substituted
// with exemplars, then case-folded.
func dedupeKey(text string) string {
	return foldCaser.String(substituteLocationTokens(text))
}

// similarity computes normalized Levenshtein similarity between two
// strings: 1 - distance/maxRuneLen, in [0,1]. The distance operates on
// runes, so rune counts are used for normalization.
func similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(s1, s2)

	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	sim := 1.0 - float64(distance)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}
