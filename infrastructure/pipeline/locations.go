package pipeline

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Location insertion tokens understood by Google Ads. The platform replaces
// them at serve time with the searcher's city, state, or country. The
// pipeline treats them as opaque markers: they must survive cleaning intact
// and are substituted with exemplar values only for length validation.
const (
	LocationCity    = "{LOCATION(City)}"
	LocationState   = "{LOCATION(State)}"
	LocationCountry = "{LOCATION(Country)}"
)

// locationTokens lists every recognized token in synthesis order.
var locationTokens = []string{LocationCity, LocationState, LocationCountry}

// locationExemplars maps each token to a realistic long replacement used
// when checking substituted headline length. Exemplars are deliberately on
// the long side so a headline that fits with them fits almost anywhere.
var locationExemplars = map[string]string{
	LocationCity:    "Los Angeles",
	LocationState:   "California",
	LocationCountry: "Estados Unidos",
}

// ContainsLocationToken reports whether s carries any location insertion
// token. Matching is exact: tokens are case-sensitive platform syntax.
func ContainsLocationToken(s string) bool {
	for _, tok := range locationTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// substituteLocationTokens replaces every location token in s with its
// exemplar value. Used only for length validation, never for output.
func substituteLocationTokens(s string) string {
	for tok, exemplar := range locationExemplars {
		s = strings.ReplaceAll(s, tok, exemplar)
	}
	return s
}

// minLocationHeadlines is the location coverage a candidate requested with
// location insertion must reach before synthesis stops.
const minLocationHeadlines = 3

// EnforceLocationHeadlines guarantees location coverage in a headline list.
// When fewer than three headlines carry a location token, it synthesizes
// replacements from the seed keywords and prepends them, so a candidate
// requested with location insertion ships enough location variants even
// when the provider ignored the instruction. Token forms not already
// present are preferred, and a list that already has three or more
// location-bearing headlines is returned untouched regardless of which
// forms they use.
//
// Synthesized forms follow the platform's examples: "<Keyword> en <city>"
// and "<Keyword> en <country>" for city and country, "<Keyword> <state>"
// for state. The keyword is title-cased and chosen so the substituted form
// stays within maxSubstituted runes; when no keyword fits, the first one is
// used anyway and length validation decides its fate downstream.
//
// The input slice is never mutated. Headlines that already carry tokens are
// kept untouched in their original positions.
func EnforceLocationHeadlines(headlines, keywords []string, maxSubstituted int) []string {
	if len(keywords) == 0 {
		return headlines
	}

	bearing := 0
	present := make(map[string]bool, len(locationTokens))
	for _, h := range headlines {
		if ContainsLocationToken(h) {
			bearing++
		}
		for _, tok := range locationTokens {
			if strings.Contains(h, tok) {
				present[tok] = true
			}
		}
	}
	if bearing >= minLocationHeadlines {
		return headlines
	}

	need := minLocationHeadlines - bearing
	var synthesized []string
	for _, tok := range locationTokens {
		if len(synthesized) == need {
			break
		}
		if present[tok] {
			continue
		}
		synthesized = append(synthesized, synthesizeLocationHeadline(tok, keywords, maxSubstituted))
	}
	if len(synthesized) == 0 {
		return headlines
	}

	out := make([]string, 0, len(synthesized)+len(headlines))
	out = append(out, synthesized...)
	out = append(out, headlines...)
	return out
}

// synthesizeLocationHeadline builds one headline carrying the given token,
// preferring the first keyword whose substituted form fits the length cap.
func synthesizeLocationHeadline(token string, keywords []string, maxSubstituted int) string {
	pick := titleCase(keywords[0])
	for _, kw := range keywords {
		candidate := locationForm(token, titleCase(kw))
		if utf8.RuneCountInString(substituteLocationTokens(candidate)) <= maxSubstituted {
			pick = titleCase(kw)
			break
		}
	}
	return locationForm(token, pick)
}

// locationForm renders the synthesis pattern for a token. State skips the
// preposition ("Brujos California" reads better than "Brujos en California"
// for US states in Spanish-market copy).
func locationForm(token, keyword string) string {
	if token == LocationState {
		return fmt.Sprintf("%s %s", keyword, token)
	}
	return fmt.Sprintf("%s en %s", keyword, token)
}

// titleCase uppercases the first letter of each space-separated word.
// strings.Title is deprecated and cases.Title folds too aggressively for
// mixed keyword input, so this does the minimal transformation needed.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
