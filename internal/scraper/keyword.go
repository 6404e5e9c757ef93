package scraper

import "strings"

// minKeywordLen is the shortest role word kept in a keyword set. Shorter words
// ("of", "vp", "and") match too much free text to be useful.
const minKeywordLen = 4

// KeywordSet builds the lowercase keyword set from every word of at least four
// characters across the given target roles.
func KeywordSet(roles []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, role := range roles {
		for _, w := range strings.Fields(strings.ToLower(role)) {
			w = strings.Trim(w, ",.;:()/&-")
			if len(w) >= minKeywordLen {
				set[w] = struct{}{}
			}
		}
	}
	return set
}

// MatchesKeywords returns true if any keyword appears (case-insensitive)
// anywhere in the combined title + description text.
//
// It is a cheap relevance pre-filter for flows that do not run full scoring;
// an empty keyword set keeps nothing.
func MatchesKeywords(title, description string, keywords map[string]struct{}) bool {
	if len(keywords) == 0 {
		return false
	}
	combined := strings.ToLower(title + " " + description)
	for k := range keywords {
		if strings.Contains(combined, k) {
			return true
		}
	}
	return false
}
