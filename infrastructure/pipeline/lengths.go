package pipeline

import (
	"fmt"
	"unicode/utf8"
)

// Default length bounds matching Google Ads responsive search ad limits.
// All bounds are rune counts; ad platforms count characters, not bytes.
const (
	DefaultHeadlineMin = 10
	DefaultHeadlineMax = 30

	// DefaultHeadlineMaxSubstituted is the cap applied to headlines
	// carrying location tokens after exemplar substitution. The platform
	// allows slight overflow for dynamically inserted text.
	DefaultHeadlineMaxSubstituted = 35

	DefaultDescriptionMin = 30
	DefaultDescriptionMax = 90
)

// LengthPolicy bounds the rune lengths of headlines and descriptions.
// Headlines with location tokens are checked against HeadlineMaxSubstituted
// after replacing each token with a long exemplar value; plain headlines
// use HeadlineMax.
type LengthPolicy struct {
	HeadlineMin            int `yaml:"headline_min" json:"headline_min" validate:"min=1"`
	HeadlineMax            int `yaml:"headline_max" json:"headline_max" validate:"min=1"`
	HeadlineMaxSubstituted int `yaml:"headline_max_substituted" json:"headline_max_substituted" validate:"min=1"`
	DescriptionMin         int `yaml:"description_min" json:"description_min" validate:"min=1"`
	DescriptionMax         int `yaml:"description_max" json:"description_max" validate:"min=1"`
}

// DefaultLengthPolicy returns the standard responsive search ad bounds.
func DefaultLengthPolicy() LengthPolicy {
	return LengthPolicy{
		HeadlineMin:            DefaultHeadlineMin,
		HeadlineMax:            DefaultHeadlineMax,
		HeadlineMaxSubstituted: DefaultHeadlineMaxSubstituted,
		DescriptionMin:         DefaultDescriptionMin,
		DescriptionMax:         DefaultDescriptionMax,
	}
}

// Validate checks the policy's internal consistency beyond struct tags.
func (p LengthPolicy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("length policy validation failed: %w", err)
	}
	if p.HeadlineMin > p.HeadlineMax {
		return fmt.Errorf("headline min %d exceeds max %d", p.HeadlineMin, p.HeadlineMax)
	}
	if p.HeadlineMax > p.HeadlineMaxSubstituted {
		return fmt.Errorf("headline max %d exceeds substituted max %d", p.HeadlineMax, p.HeadlineMaxSubstituted)
	}
	if p.DescriptionMin > p.DescriptionMax {
		return fmt.Errorf("description min %d exceeds max %d", p.DescriptionMin, p.DescriptionMax)
	}
	return nil
}

// ValidHeadline reports whether a headline satisfies the policy.
// Location-token headlines are measured after exemplar substitution and
// allowed up to HeadlineMaxSubstituted runes.
func (p LengthPolicy) ValidHeadline(s string) bool {
	if ContainsLocationToken(s) {
		n := utf8.RuneCountInString(substituteLocationTokens(s))
		return n >= p.HeadlineMin && n <= p.HeadlineMaxSubstituted
	}
	n := utf8.RuneCountInString(s)
	return n >= p.HeadlineMin && n <= p.HeadlineMax
}

// ValidDescription reports whether a description satisfies the policy.
func (p LengthPolicy) ValidDescription(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= p.DescriptionMin && n <= p.DescriptionMax
}

// FilterHeadlines splits headlines into policy-compliant and rejected
// lists, preserving input order in both.
func (p LengthPolicy) FilterHeadlines(headlines []string) (kept, dropped []string) {
	for _, h := range headlines {
		if p.ValidHeadline(h) {
			kept = append(kept, h)
		} else {
			dropped = append(dropped, h)
		}
	}
	return kept, dropped
}

// FilterDescriptions splits descriptions into policy-compliant and rejected
// lists, preserving input order in both.
func (p LengthPolicy) FilterDescriptions(descriptions []string) (kept, dropped []string) {
	for _, d := range descriptions {
		if p.ValidDescription(d) {
			kept = append(kept, d)
		} else {
			dropped = append(dropped, d)
		}
	}
	return kept, dropped
}
