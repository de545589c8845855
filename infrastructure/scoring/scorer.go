// Package scoring assigns CTR-potential scores to ad headlines using
// deterministic lexicon heuristics. No network, no model calls: the same
// headline and keywords always produce the same score, so results are
// reproducible and unit-testable.
package scoring

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-copyforge/internal/domain"
)

// Scoring constants. Length bonuses reward the 20-30 rune sweet spot where
// headlines use most of the platform's space without truncation risk.
const (
	DefaultBaseScore        = 50.0
	DefaultPublishableFloor = 60.0

	lengthSweetMin = 20
	lengthSweetMax = 30

	lengthBonus     = 5.0
	shortPenalty    = 15.0
	longPenalty     = 8.0
	keywordWeight   = 0.6
	intentWeight    = 0.4
	maxScore        = 100.0
	criticalPenalty = 30.0
	highPenalty     = 20.0
	mediumPenalty   = 12.0
)

var validate = validator.New()

// foldCaser folds case for trigger matching across the whole package.
var foldCaser = cases.Fold()

// ScoringPolicy tunes the scorer's fixed points.
type ScoringPolicy struct {
	// BaseScore is the neutral starting score for every headline.
	BaseScore float64 `yaml:"base_score" json:"base_score" validate:"min=0,max=100"`

	// PublishableFloor is the minimum score a headline needs, on top of
	// having zero anti-patterns, to be marked publishable.
	PublishableFloor float64 `yaml:"publishable_floor" json:"publishable_floor" validate:"min=0,max=100"`
}

// DefaultScoringPolicy returns the standard tuning.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		BaseScore:        DefaultBaseScore,
		PublishableFloor: DefaultPublishableFloor,
	}
}

// Scorer scores headlines against the package lexicons. Stateless and
// safe for concurrent use.
type Scorer struct {
	policy ScoringPolicy
}

// NewScorer builds a scorer with the given policy.
func NewScorer(policy ScoringPolicy) (*Scorer, error) {
	if err := validate.Struct(policy); err != nil {
		return nil, fmt.Errorf("scoring policy validation failed: %w", err)
	}
	return &Scorer{policy: policy}, nil
}

// Score assesses a single headline against the keywords it should serve.
// The result is a pure function of the inputs.
func (s *Scorer) Score(headline string, keywords []string) domain.ScoreResult {
	folded := foldCaser.String(headline)
	tokens := tokenize(folded)

	result := domain.ScoreResult{Headline: headline}
	score := s.policy.BaseScore

	for _, cat := range genericBoosters {
		if rec, ok := matchBooster(cat, headline, folded, tokens); ok {
			result.Boosts = append(result.Boosts, rec)
			score += rec.Magnitude
		}
	}
	for _, cat := range domainBoosters {
		if rec, ok := matchBooster(cat, headline, folded, tokens); ok {
			result.Boosts = append(result.Boosts, rec)
			score += rec.Magnitude
		}
	}

	switch n := utf8.RuneCountInString(headline); {
	case n < lengthSweetMin:
		score -= shortPenalty
	case n > lengthSweetMax:
		score -= longPenalty
	default:
		score += lengthBonus
	}

	result.AntiPatterns = detectAntiPatterns(tokens)
	for _, ap := range result.AntiPatterns {
		score -= ap.Penalty
	}

	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}

	result.Score = score
	result.Rank = domain.RankForScore(score)
	result.Semantic = semantic(folded, keywords)
	result.Publishable = score >= s.policy.PublishableFloor && len(result.AntiPatterns) == 0
	return result
}

// matchBooster checks one booster category against a headline. The numeric
// category matches any digit; all others match their trigger list, token
// exact for single words and substring for phrases. First hit wins.
func matchBooster(cat boosterCategory, original, folded string, tokens []string) (domain.BoostRecord, bool) {
	if cat.name == "numeric" {
		for _, r := range original {
			if unicode.IsDigit(r) {
				return domain.BoostRecord{
					Category:  cat.name,
					Magnitude: cat.points * cat.weight,
					Trigger:   string(r),
				}, true
			}
		}
		return domain.BoostRecord{}, false
	}

	for _, trigger := range cat.triggers {
		if matchesTrigger(trigger, folded, tokens) {
			return domain.BoostRecord{
				Category:  cat.name,
				Magnitude: cat.points * cat.weight,
				Trigger:   trigger,
			}, true
		}
	}
	return domain.BoostRecord{}, false
}

// matchesTrigger matches single-word triggers token-exactly so short words
// never fire inside longer ones, and multi-word triggers by substring.
func matchesTrigger(trigger, folded string, tokens []string) bool {
	if strings.ContainsRune(trigger, ' ') {
		return strings.Contains(folded, trigger)
	}
	for _, tok := range tokens {
		if tok == trigger {
			return true
		}
	}
	return false
}

// detectAntiPatterns scans a tokenized headline for structural
// incoherences. Each family is reported at most once.
func detectAntiPatterns(tokens []string) []domain.AntiPatternRecord {
	var records []domain.AntiPatternRecord
	fired := make(map[string]bool, 4)

	report := func(category string, severity domain.Severity, penalty float64, trigger string) {
		if fired[category] {
			return
		}
		fired[category] = true
		records = append(records, domain.AntiPatternRecord{
			Category: category,
			Severity: severity,
			Penalty:  penalty,
			Trigger:  trigger,
		})
	}

	for i := 0; i+1 < len(tokens); i++ {
		if prepositions[tokens[i]] && prepositions[tokens[i+1]] {
			report("adjacent_prepositions", domain.SeverityCritical, criticalPenalty,
				tokens[i]+" "+tokens[i+1])
		}
		if tokens[i] == tokens[i+1] {
			report("word_repetition", domain.SeverityHigh, highPenalty, tokens[i])
		}
		if intensifiers[tokens[i]] && intensifiers[tokens[i+1]] {
			report("doubled_intensifiers", domain.SeverityMedium, mediumPenalty,
				tokens[i]+" "+tokens[i+1])
		}
	}

	if len(tokens) > 0 {
		if first := tokens[0]; prepositions[first] {
			report("preposition_boundary", domain.SeverityMedium, mediumPenalty, first)
		} else if last := tokens[len(tokens)-1]; prepositions[last] {
			report("preposition_boundary", domain.SeverityMedium, mediumPenalty, last)
		}
	}

	return records
}

// semantic measures keyword and intent relevance. Keyword ratio is the
// percentage of supplied keywords found in the folded headline; intent
// score sums matched intent weights, capped at 100. The blend is
// 0.6 keyword, 0.4 intent.
func semantic(folded string, keywords []string) domain.SemanticResult {
	result := domain.SemanticResult{}
	tokens := tokenize(folded)

	if len(keywords) > 0 {
		matched := 0
		for _, kw := range keywords {
			if strings.Contains(folded, foldCaser.String(kw)) {
				matched++
			}
		}
		result.KeywordRatio = 100 * float64(matched) / float64(len(keywords))
		if result.KeywordRatio > 100 {
			result.KeywordRatio = 100
		}
	}

	for _, cat := range intents {
		for _, trigger := range cat.triggers {
			if matchesTrigger(trigger, folded, tokens) {
				result.Intents = append(result.Intents, cat.name)
				result.IntentScore += cat.weight
				break
			}
		}
	}
	if result.IntentScore > 100 {
		result.IntentScore = 100
	}

	result.Combined = keywordWeight*result.KeywordRatio + intentWeight*result.IntentScore
	return result
}

// tokenize splits folded text into word tokens, treating anything that is
// not a letter or digit as a separator. Location tokens therefore break
// into their constituent words, which is what the structural detectors
// want.
func tokenize(folded string) []string {
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
