// Package scoring evaluates postings against a candidate's criteria.
//
// A posting must pass three gates (role, industry when industries are
// specified, location). Failing any gate forces the score to zero. A posting
// that passes all gates scores the sum of the gate points plus a flat base,
// capped at 100.
package scoring

import (
	"sort"
	"strings"

	"jobmate/exec-discovery/internal/model"
)

// Gate point values.
const (
	RoleExactPoints     = 40
	RoleKeywordPoints   = 30
	IndustryDirect      = 30
	IndustryFamilyMatch = 25
	LocationMatch       = 20
	LocationRegionMatch = 15
	BasePoints          = 10
	MaxScore            = 100
)

// Category thresholds used by downstream filtering.
const (
	HighThreshold   = 88
	MediumThreshold = 70
	MatchThreshold  = 50
)

// Category is the relevance bucket of a score.
type Category string

const (
	CategoryHigh   Category = "high"
	CategoryMedium Category = "medium"
	CategoryLow    Category = "low"
	CategoryNone   Category = "none"
)

// Gate names reported in Breakdown.FailedGate.
const (
	GateRole     = "role"
	GateIndustry = "industry"
	GateLocation = "location"
)

// Breakdown details how a score was computed.
type Breakdown struct {
	Role       int    `json:"role"`
	Industry   int    `json:"industry"`
	Location   int    `json:"location"`
	Base       int    `json:"base"`
	Total      int    `json:"total"`
	FailedGate string `json:"failedGate,omitempty"`
}

// Evaluate runs all gates and returns the full breakdown.
func Evaluate(p *model.Posting, c model.Criteria) Breakdown {
	var b Breakdown

	role, ok := roleGate(p.Title, c.TargetRoles)
	if !ok {
		return Breakdown{FailedGate: GateRole}
	}
	b.Role = role

	industry, ok := industryGate(p.Industry, c.Industries)
	if !ok {
		return Breakdown{FailedGate: GateIndustry}
	}
	b.Industry = industry

	location, ok := locationGate(p, c)
	if !ok {
		return Breakdown{FailedGate: GateLocation}
	}
	b.Location = location

	b.Base = BasePoints
	b.Total = min(b.Role+b.Industry+b.Location+b.Base, MaxScore)
	return b
}

// Score returns the bounded score of p against c.
func Score(p *model.Posting, c model.Criteria) int {
	return Evaluate(p, c).Total
}

// Matches reports whether p scores at or above the match threshold.
func Matches(p *model.Posting, c model.Criteria) bool {
	return Score(p, c) >= MatchThreshold
}

// CategoryFor maps a score to its relevance bucket.
func CategoryFor(score int) Category {
	switch {
	case score >= HighThreshold:
		return CategoryHigh
	case score >= MediumThreshold:
		return CategoryMedium
	case score >= MatchThreshold:
		return CategoryLow
	default:
		return CategoryNone
	}
}

// ParseCategory converts a raw string to a Category.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(s)); c {
	case CategoryHigh, CategoryMedium, CategoryLow, CategoryNone:
		return c, true
	}
	return "", false
}

// Bounds returns the inclusive score range of a category.
func (c Category) Bounds() (lo, hi int) {
	switch c {
	case CategoryHigh:
		return HighThreshold, MaxScore
	case CategoryMedium:
		return MediumThreshold, HighThreshold - 1
	case CategoryLow:
		return MatchThreshold, MediumThreshold - 1
	default:
		return 0, MatchThreshold - 1
	}
}

// Rank sorts postings by score descending, then posted date descending, then
// source locator ascending so that equal scores order deterministically.
func Rank(postings []model.Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		a, b := postings[i], postings[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if !a.PostedDate.Equal(b.PostedDate) {
			return a.PostedDate.After(b.PostedDate)
		}
		return a.SourceURL < b.SourceURL
	})
}

func roleGate(title string, roles []string) (int, bool) {
	t := strings.ToLower(title)
	if t == "" {
		return 0, false
	}
	for _, role := range roles {
		if r := strings.ToLower(strings.TrimSpace(role)); r != "" && strings.Contains(t, r) {
			return RoleExactPoints, true
		}
	}
	if containsAny(t, RoleKeywords(roles)) {
		return RoleKeywordPoints, true
	}
	return 0, false
}

func industryGate(industry string, preferred []string) (int, bool) {
	if len(preferred) == 0 {
		return 0, true
	}
	ind := strings.ToLower(strings.TrimSpace(industry))
	if ind == "" {
		return 0, false
	}
	for _, pref := range preferred {
		p := strings.ToLower(strings.TrimSpace(pref))
		if p != "" && (strings.Contains(ind, p) || strings.Contains(p, ind)) {
			return IndustryDirect, true
		}
	}
	for _, pref := range preferred {
		for _, fam := range FamiliesFor(pref) {
			if containsAnyWord(ind, fam.Terms) {
				return IndustryFamilyMatch, true
			}
		}
	}
	return 0, false
}

func locationGate(p *model.Posting, c model.Criteria) (int, bool) {
	remote := p.IsRemote()
	if remote && c.RemoteOK {
		return LocationMatch, true
	}

	loc := strings.ToLower(strings.TrimSpace(p.Location))
	if loc == "" {
		return 0, false
	}
	for _, pref := range c.PreferredLocations {
		pl := strings.ToLower(strings.TrimSpace(pref))
		if pl != "" && (strings.Contains(loc, pl) || strings.Contains(pl, loc)) {
			return LocationMatch, true
		}
	}
	region := trailingRegion(loc)
	if region == "" {
		return 0, false
	}
	for _, pref := range c.PreferredLocations {
		if trailingRegion(strings.ToLower(pref)) == region {
			return LocationRegionMatch, true
		}
	}
	return 0, false
}

// trailingRegion returns the text after the last comma ("austin, tx" → "tx"),
// or "" when the location has no comma.
func trailingRegion(loc string) string {
	i := strings.LastIndex(loc, ",")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(loc[i+1:])
}
