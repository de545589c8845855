package scoring

import (
	"sort"

	"github.com/ahrav/go-copyforge/internal/domain"
)

// topListSize bounds the Top and Bottom performer lists in a report.
const topListSize = 3

// ScoreHeadlines scores every headline and aggregates the results into a
// report: averages, the three best and worst performers, coherence counts,
// unused booster categories, and mechanical recommendations.
func (s *Scorer) ScoreHeadlines(headlines, keywords []string) domain.ScoreReport {
	report := domain.ScoreReport{}
	if len(headlines) == 0 {
		return report
	}

	used := make(map[string]bool)
	firedPatterns := make(map[string]bool)
	total := 0.0

	report.Results = make([]domain.ScoreResult, 0, len(headlines))
	for _, h := range headlines {
		r := s.Score(h, keywords)
		report.Results = append(report.Results, r)
		total += r.Score

		for _, b := range r.Boosts {
			used[b.Category] = true
		}
		for _, ap := range r.AntiPatterns {
			firedPatterns[ap.Category] = true
		}
		if len(r.AntiPatterns) == 0 {
			report.Coherent++
		} else {
			report.Incoherent++
		}
		if r.Publishable {
			report.Publishable++
		}
	}
	report.Average = total / float64(len(report.Results))

	ranked := make([]domain.HeadlinePerformance, len(report.Results))
	for i, r := range report.Results {
		ranked[i] = domain.HeadlinePerformance{Headline: r.Headline, Score: r.Score, Rank: r.Rank}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	n := len(ranked)
	top := topListSize
	if top > n {
		top = n
	}
	report.Top = append([]domain.HeadlinePerformance(nil), ranked[:top]...)
	bottom := append([]domain.HeadlinePerformance(nil), ranked[n-top:]...)
	// Bottom lists worst first.
	sort.SliceStable(bottom, func(i, j int) bool { return bottom[i].Score < bottom[j].Score })
	report.Bottom = bottom

	// Unused categories follow stable table order so reports diff cleanly.
	for _, cat := range genericBoosters {
		if !used[cat.name] {
			report.UnusedCategories = append(report.UnusedCategories, cat.name)
		}
	}
	for _, cat := range domainBoosters {
		if !used[cat.name] {
			report.UnusedCategories = append(report.UnusedCategories, cat.name)
		}
	}

	for _, cat := range report.UnusedCategories {
		if rec, ok := boosterRecommendations[cat]; ok {
			report.Recommendations = append(report.Recommendations, rec)
		}
	}
	// Anti-pattern advice in detector order, not map order.
	for _, cat := range []string{
		"adjacent_prepositions", "word_repetition",
		"doubled_intensifiers", "preposition_boundary",
	} {
		if firedPatterns[cat] {
			report.Recommendations = append(report.Recommendations, antiPatternRecommendations[cat])
		}
	}

	return report
}

// ScoreCandidate attaches a score report to a candidate's headlines.
// Failed candidates are left untouched.
func (s *Scorer) ScoreCandidate(c *domain.AdCandidate) {
	if c == nil || !c.Accepted() {
		return
	}
	report := s.ScoreHeadlines(c.Headlines, c.Keywords)
	c.Score = &report
}
