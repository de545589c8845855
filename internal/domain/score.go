package domain

// Rank is a letter-grade bucketing of a headline score. Ranks are strictly
// ordered: A+ > A > B > C > D > F.
type Rank string

// Rank values, from best to worst.
const (
	RankAPlus Rank = "A+"
	RankA     Rank = "A"
	RankB     Rank = "B"
	RankC     Rank = "C"
	RankD     Rank = "D"
	RankF     Rank = "F"
)

// RankForScore buckets a final score into its letter grade using fixed
// thresholds.
func RankForScore(score float64) Rank {
	switch {
	case score >= 90:
		return RankAPlus
	case score >= 85:
		return RankA
	case score >= 70:
		return RankB
	case score >= 55:
		return RankC
	case score >= 40:
		return RankD
	default:
		return RankF
	}
}

// Severity classifies how badly an anti-pattern damages a headline.
type Severity string

// Severity levels, from worst to mildest.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// BoostRecord documents a single booster match: which category fired, how
// many points it contributed after weighting, and the text that triggered it.
type BoostRecord struct {
	// Category names the booster table that matched (e.g. "numeric",
	// "urgency", "authority").
	Category string `json:"category"`

	// Magnitude is the points contributed, weights already applied.
	Magnitude float64 `json:"magnitude"`

	// Trigger is the substring that produced the match.
	Trigger string `json:"trigger"`
}

// AntiPatternRecord documents a detected structural incoherence.
type AntiPatternRecord struct {
	// Category names the anti-pattern family (e.g.
	// "adjacent_prepositions", "word_repetition").
	Category string `json:"category"`

	// Severity grades the finding.
	Severity Severity `json:"severity"`

	// Penalty is the points subtracted from the score.
	Penalty float64 `json:"penalty"`

	// Trigger is the fragment that fired the detection.
	Trigger string `json:"trigger"`
}

// SemanticResult reports how well a headline matches the supplied keywords
// and recognizable search intents. It is informational: the semantic score
// is reported alongside the main score, never folded into it.
type SemanticResult struct {
	// KeywordRatio is the percentage of supplied keywords found verbatim
	// in the headline (case-insensitive), capped at 100.
	KeywordRatio float64 `json:"keyword_ratio"`

	// Intents lists the intent lexicons that matched (e.g. "urgency",
	// "transactional").
	Intents []string `json:"intents"`

	// IntentScore is the weighted sum over matched intent lexicons,
	// capped at 100.
	IntentScore float64 `json:"intent_score"`

	// Combined blends the two signals: 0.6*KeywordRatio + 0.4*IntentScore.
	Combined float64 `json:"combined"`
}

// ScoreResult is the full, explainable assessment of a single headline.
// It is a pure function of the (headline, keywords) pair: identical inputs
// always produce identical results.
type ScoreResult struct {
	// Headline is the text that was scored.
	Headline string `json:"headline"`

	// Score is the final CTR-potential score in [0,100].
	Score float64 `json:"score"`

	// Rank buckets Score into a letter grade.
	Rank Rank `json:"rank"`

	// Boosts lists every booster match in detection order.
	Boosts []BoostRecord `json:"boosts,omitempty"`

	// AntiPatterns lists every detected incoherence, at most one per
	// family.
	AntiPatterns []AntiPatternRecord `json:"anti_patterns,omitempty"`

	// Semantic reports keyword and intent relevance.
	Semantic SemanticResult `json:"semantic"`

	// Publishable is true when Score meets the publishable floor and no
	// anti-patterns were detected.
	Publishable bool `json:"publishable"`
}

// HeadlinePerformance pairs a headline with its score for ranking lists.
type HeadlinePerformance struct {
	// Headline is the scored text.
	Headline string `json:"headline"`

	// Score is the headline's final score.
	Score float64 `json:"score"`

	// Rank is the headline's letter grade.
	Rank Rank `json:"rank"`
}

// ScoreReport aggregates the scores of a candidate's (or any) headline list.
type ScoreReport struct {
	// Results holds the per-headline assessments in input order.
	Results []ScoreResult `json:"results"`

	// Average is the mean final score across all headlines; zero when
	// Results is empty.
	Average float64 `json:"average"`

	// Top holds the up-to-three best performers by score.
	Top []HeadlinePerformance `json:"top,omitempty"`

	// Bottom holds the up-to-three worst performers by score.
	Bottom []HeadlinePerformance `json:"bottom,omitempty"`

	// Coherent counts headlines with zero anti-patterns; Incoherent is
	// the remainder.
	Coherent   int `json:"coherent"`
	Incoherent int `json:"incoherent"`

	// Publishable counts headlines that cleared the publishable bar.
	Publishable int `json:"publishable"`

	// UnusedCategories lists booster categories no headline triggered,
	// in stable table order.
	UnusedCategories []string `json:"unused_categories,omitempty"`

	// Recommendations are advisory strings derived from unused booster
	// categories and fired anti-patterns. Purely mechanical, no external
	// data.
	Recommendations []string `json:"recommendations,omitempty"`
}
