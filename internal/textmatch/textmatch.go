// Package textmatch provides the text-similarity primitives used to decide
// whether a transaction's merchant/description text plausibly refers to a
// brand name or a stored merchant pattern.
package textmatch

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// Patterns for stripping bank-statement noise from merchant text.
	prefixPattern = regexp.MustCompile(`(?i)^(upi[/\- ]|neft[/\- ]|imps[/\- ]|ach[/\- ]|pos |eftpos |visa |mastercard |paypal \*)`)
	suffixPattern = regexp.MustCompile(`(?i)\s+(pvt|pvtltd|ltd|inc|corp|llc|in|au|us|uk|sg)\.?$`)
	longNumbers   = regexp.MustCompile(`\d{6,}`)
	specialChars  = regexp.MustCompile(`[*#@/]+`)
	multiSpace    = regexp.MustCompile(`\s{2,}`)
)

// maxEditRatio is the normalized Levenshtein distance at or above which two
// tokens are considered different words.
const maxEditRatio = 0.34

// CleanBankText strips scheme prefixes, reference numbers and separator junk
// from raw bank-statement text and title-cases the remainder for display.
func CleanBankText(raw string) string {
	cleaned := prefixPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = longNumbers.ReplaceAllString(cleaned, "")
	cleaned = specialChars.ReplaceAllString(cleaned, " ")
	cleaned = suffixPattern.ReplaceAllString(cleaned, "")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	caser := cases.Title(language.English)
	words := strings.Fields(cleaned)
	for i, word := range words {
		if len(word) > 2 {
			words[i] = caser.String(strings.ToLower(word))
		} else {
			words[i] = strings.ToUpper(word)
		}
	}

	result := strings.Join(words, " ")
	if len(result) > 50 {
		result = result[:50]
	}
	return result
}

// normalize lowercases and strips statement noise for comparison purposes.
func normalize(s string) string {
	cleaned := prefixPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
	cleaned = longNumbers.ReplaceAllString(cleaned, "")
	cleaned = specialChars.ReplaceAllString(cleaned, " ")
	cleaned = multiSpace.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// FuzzyMatch reports whether needle plausibly refers to the same merchant as
// haystack. Comparison is containment-first with a Levenshtein fallback per
// token, so "NETFLX*SUBSCRIPTION 884412" still matches "Netflix".
func FuzzyMatch(haystack, needle string) bool {
	h := normalize(haystack)
	n := normalize(needle)
	if h == "" || n == "" {
		return false
	}

	if strings.Contains(h, n) {
		return true
	}

	hayTokens := strings.Fields(h)
	needleTokens := strings.Fields(n)
	if len(needleTokens) == 0 {
		return false
	}

	// Every needle token must match some haystack token.
	for _, nt := range needleTokens {
		if !tokenMatches(hayTokens, nt) {
			return false
		}
	}
	return true
}

func tokenMatches(hayTokens []string, needle string) bool {
	for _, ht := range hayTokens {
		if strings.Contains(ht, needle) || strings.Contains(needle, ht) {
			return true
		}
		if len(needle) < 4 || len(ht) < 4 {
			// Short tokens produce too many edit-distance false positives.
			continue
		}
		dist := levenshtein.ComputeDistance(ht, needle)
		maxLen := len(ht)
		if len(needle) > maxLen {
			maxLen = len(needle)
		}
		if float64(dist)/float64(maxLen) < maxEditRatio {
			return true
		}
	}
	return false
}
