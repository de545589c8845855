package pipeline

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CleanText normalizes whitespace in provider output: leading and trailing
// space is trimmed and internal whitespace runs collapse to a single space.
// Location tokens pass through untouched since they contain no whitespace.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanAll applies CleanText to every entry, dropping texts that clean to
// empty.
func CleanAll(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if cleaned := CleanText(t); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// prohibitedPunctuation lists characters Google Ads disallows in headlines.
// Inverted marks are included for Spanish-market copy.
const prohibitedPunctuation = "!¡?¿"

// PolicyChecker inspects ad texts for findings that would trigger platform
// disapproval or editorial review. Findings are advisory: they become
// candidate warnings, never rejections, because platform enforcement is
// inconsistent and a human reviews flagged copy anyway.
type PolicyChecker struct {
	// ForbiddenPhrases are case-insensitive substrings that draw policy
	// review (unsupportable claims, superlatives).
	ForbiddenPhrases []string `yaml:"forbidden_phrases" json:"forbidden_phrases"`
}

// DefaultPolicyChecker returns a checker loaded with the phrases that most
// often trip ad review for this vertical.
func DefaultPolicyChecker() *PolicyChecker {
	return &PolicyChecker{
		ForbiddenPhrases: []string{
			"100% garantizado",
			"resultados garantizados",
			"el mejor del mundo",
			"milagro asegurado",
			"gratis total",
		},
	}
}

// Check returns advisory findings for a single text. An empty slice means
// the text is clean.
func (pc *PolicyChecker) Check(text string) []string {
	var findings []string

	if i := strings.IndexAny(text, prohibitedPunctuation); i >= 0 {
		r, _ := utf8.DecodeRuneInString(text[i:])
		findings = append(findings, fmt.Sprintf("prohibited punctuation %q in %q", string(r), text))
	}

	if containsEmoji(text) {
		findings = append(findings, fmt.Sprintf("emoji in %q", text))
	}

	if run := longestUpperRun(text); run >= 3 {
		findings = append(findings, fmt.Sprintf("excessive capitalization in %q", text))
	}

	if strings.Contains(text, "  ") {
		findings = append(findings, fmt.Sprintf("double space in %q", text))
	}

	folded := foldCaser.String(text)
	for _, phrase := range pc.ForbiddenPhrases {
		if strings.Contains(folded, foldCaser.String(phrase)) {
			findings = append(findings, fmt.Sprintf("forbidden phrase %q in %q", phrase, text))
		}
	}

	if allDigits(text) {
		findings = append(findings, fmt.Sprintf("text is only digits: %q", text))
	}

	return findings
}

// CheckAll runs Check over every text and concatenates the findings.
func (pc *PolicyChecker) CheckAll(texts []string) []string {
	var findings []string
	for _, t := range texts {
		findings = append(findings, pc.Check(t)...)
	}
	return findings
}

// containsEmoji reports whether text carries symbols from the emoji and
// pictograph ranges.
func containsEmoji(text string) bool {
	for _, r := range text {
		if (r >= 0x1F300 && r <= 0x1FAFF) || // pictographs, emoticons, symbols
			(r >= 0x2600 && r <= 0x27BF) || // misc symbols and dingbats
			(r >= 0xFE00 && r <= 0xFE0F) { // variation selectors
			return true
		}
	}
	return false
}

// longestUpperRun returns the longest run of consecutive uppercase letters.
// Location tokens are stripped first so their uppercase platform syntax is
// not mistaken for shouting.
func longestUpperRun(text string) int {
	for _, tok := range locationTokens {
		text = strings.ReplaceAll(text, tok, " ")
	}

	longest, current := 0, 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return longest
}

// allDigits reports whether every non-space rune in a non-empty text is a
// digit.
func allDigits(text string) bool {
	seen := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		if !unicode.IsDigit(r) {
			return false
		}
		seen = true
	}
	return seen
}
