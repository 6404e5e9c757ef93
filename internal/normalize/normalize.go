// Package normalize maps raw adapter output onto the canonical Posting record.
// It never fails: malformed or missing fields degrade to documented defaults.
package normalize

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"jobmate/exec-discovery/internal/model"
)

// Defaults substituted for missing fields.
const (
	DefaultCompany         = "Unknown"
	DefaultLocation        = "Remote"
	DefaultWorkArrangement = "Full-time"
)

// dateLayouts are tried in order against the raw posted value.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Posting converts raw into a Posting with status new and score 0.
func Posting(raw model.RawPosting, info model.SourceInfo, now time.Time) model.Posting {
	location := strings.TrimSpace(raw.Location)
	if location == "" {
		location = info.DefaultLocation
	}
	if location == "" {
		location = DefaultLocation
	}

	return model.Posting{
		Title:           Truncate(clean(raw.Title), model.MaxTitleLen),
		Company:         Truncate(orDefault(clean(raw.Company), DefaultCompany), model.MaxCompanyLen),
		Description:     Truncate(StripMarkup(raw.Description), model.MaxDescriptionLen),
		Location:        location,
		WorkArrangement: orDefault(clean(raw.WorkArrangement), DefaultWorkArrangement),
		Industry:        clean(raw.Industry),
		SourceName:      info.Name,
		SourceKind:      info.Kind,
		SourceURL:       strings.TrimSpace(raw.URL),
		PostedDate:      PostedDate(raw.Posted, now),
		Status:          model.StatusNew,
		MatchScore:      0,
	}
}

// PostedDate parses a source timestamp into a UTC calendar date, falling back
// to the date of now when the value is empty or unparsable.
func PostedDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return dateOf(t)
			}
		}
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
			return dateOf(time.Unix(secs, 0))
		}
	}
	return dateOf(now)
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// clean collapses internal whitespace runs into single spaces.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
