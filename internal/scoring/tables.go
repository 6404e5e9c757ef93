package scoring

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// RoleExpansion adds related title keywords when a target role contains any
// of the trigger substrings.
type RoleExpansion struct {
	Triggers []string
	Keywords []string
}

// RoleExpansions is consulted in order; every matching expansion applies.
var RoleExpansions = []RoleExpansion{
	{
		Triggers: []string{"ux", "designer"},
		Keywords: []string{
			"user experience",
			"ui designer",
			"product designer",
			"senior ux",
			"lead ux",
			"principal ux",
			"head of design",
		},
	},
	{
		Triggers: []string{"head", "director", "vp"},
		Keywords: []string{"director", "vice president", "vp", "head of"},
	},
}

// IndustryFamily groups industry labels that are treated as synonyms.
type IndustryFamily struct {
	Name  string
	Terms []string
}

// IndustryFamilies lists the hand-curated synonym families. Terms match whole
// words only, so "Biotech" does not fall into the technology family.
var IndustryFamilies = []IndustryFamily{
	{Name: "saas", Terms: []string{"saas", "technology", "cloud"}},
	{Name: "media", Terms: []string{"media", "entertainment", "streaming", "publishing", "gaming"}},
	{Name: "telecom", Terms: []string{"telecom", "telecommunications", "wireless", "mobile"}},
}

// RoleKeywords builds the lowercase keyword list for a set of target roles:
// each role's own text followed by the expansions it triggers. Duplicates are
// dropped and first-seen order is kept.
func RoleKeywords(roles []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(k string) {
		if _, ok := seen[k]; ok || k == "" {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	for _, role := range roles {
		lower := strings.ToLower(strings.TrimSpace(role))
		add(lower)
		for _, exp := range RoleExpansions {
			if containsAny(lower, exp.Triggers) {
				for _, k := range exp.Keywords {
					add(k)
				}
			}
		}
	}
	return out
}

// FamiliesFor returns the synonym families triggered by a preferred industry
// label.
func FamiliesFor(preference string) []IndustryFamily {
	lower := strings.ToLower(preference)
	var out []IndustryFamily
	for _, fam := range IndustryFamilies {
		if containsAnyWord(lower, fam.Terms) {
			out = append(out, fam)
		}
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// containsAnyWord reports whether any term occurs in s delimited by
// non-alphanumeric runes or the ends of s.
func containsAnyWord(s string, terms []string) bool {
	for _, t := range terms {
		if containsWord(s, t) {
			return true
		}
	}
	return false
}

func containsWord(s, term string) bool {
	if term == "" {
		return false
	}
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if !wordRuneBefore(s, start) && !wordRuneAfter(s, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func wordRuneBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func wordRuneAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
