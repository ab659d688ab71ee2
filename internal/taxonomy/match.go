package taxonomy

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// nonDataPatterns reject labels that are not line items at all: separator
// rows, bare totals, page markers.
var nonDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[-=_*.\s]*$`),
	regexp.MustCompile(`^(sub)?totals?$`),
	regexp.MustCompile(`^page\s+\d+`),
	regexp.MustCompile(`^\(?continued\)?$`),
	regexp.MustCompile(`^(income|revenue|expenses?|operating\s+expenses?)$`), // bare section headers
}

// glCodePattern strips leading GL/account codes like "4100 -" or "5200.10:".
var glCodePattern = regexp.MustCompile(`^\s*\d[\d.\-]*\s*[-–:]?\s*`)

var whitespacePattern = regexp.MustCompile(`\s+`)

// Matcher classifies free-text line-item labels against a Taxonomy.
type Matcher struct {
	tax       *Taxonomy
	threshold float64 // fuzzy similarity floor, 0-100 scale
}

// NewMatcher creates a Matcher. threshold is the minimum token-sort-ratio
// (0-100) for a fuzzy match to be accepted.
func NewMatcher(tax *Taxonomy, threshold float64) *Matcher {
	return &Matcher{tax: tax, threshold: threshold}
}

// Match maps a raw label to a canonical key. Precedence is strict and the
// first hit wins: exact abbreviation, then regex pattern, then fuzzy keyword
// match above the threshold. Returns ("", false) for unclassifiable labels —
// the caller treats those as unmapped, never as zero.
func (m *Matcher) Match(rawLabel string) (string, bool) {
	label := Normalize(rawLabel)
	if label == "" || m.isNonData(label) {
		return "", false
	}

	// Abbreviations are unambiguous and short-circuit before anything
	// fuzzier, so "R&M" can never drift to the wrong category.
	for _, key := range m.tax.keys {
		entry := m.tax.entries[key]
		for _, abbrev := range entry.Abbrevs {
			if label == abbrev {
				return key, true
			}
		}
	}

	for _, key := range m.tax.keys {
		entry := m.tax.entries[key]
		for _, pat := range entry.Patterns {
			if pat.MatchString(label) && !hasSkipWord(label, entry.SkipWords) {
				return key, true
			}
		}
	}

	return m.fuzzyMatch(label)
}

// fuzzyMatch scores the label against the keyword vocabulary of every key
// combined and accepts the single best match above the threshold.
func (m *Matcher) fuzzyMatch(label string) (string, bool) {
	bestKey := ""
	bestScore := 0.0

	for _, key := range m.tax.keys {
		entry := m.tax.entries[key]
		if hasSkipWord(label, entry.SkipWords) {
			continue
		}
		for _, kw := range entry.Keywords {
			score := TokenSortRatio(label, kw)
			if score > bestScore {
				bestScore = score
				bestKey = key
			}
		}
	}

	if bestScore >= m.threshold {
		return bestKey, true
	}
	return "", false
}

func (m *Matcher) isNonData(label string) bool {
	for _, pat := range nonDataPatterns {
		if pat.MatchString(label) {
			return true
		}
	}
	return false
}

func hasSkipWord(label string, skipWords []string) bool {
	for _, w := range skipWords {
		if strings.Contains(label, w) {
			return true
		}
	}
	return false
}

// Normalize strips leading GL codes, collapses whitespace, and lowercases.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = glCodePattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TokenSortRatio returns a 0-100 similarity between two strings after
// sorting their tokens, so word order does not matter.
func TokenSortRatio(a, b string) float64 {
	return levenshtein.Similarity(tokenSort(a), tokenSort(b), levenshtein.NewParams()) * 100
}

func tokenSort(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
