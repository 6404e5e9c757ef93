// Package feed parses RSS and Atom job feeds into raw postings and exposes a
// configured feed as a discovery source.
package feed

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"jobmate/exec-discovery/internal/model"
	"jobmate/exec-discovery/internal/normalize"
)

// httpPrefix is the scheme prefix used to decide whether a GUID is a link.
const httpPrefix = "http"

// companySeparator splits "<Role> - <Company>" titles.
const companySeparator = " - "

// ErrMalformedFeedContent is returned when a body is not RSS or Atom, e.g. an
// HTML error page served with HTTP 200.
var ErrMalformedFeedContent = errors.New("malformed feed content")

// LooksLikeFeed reports whether body carries an <rss or <feed root marker.
func LooksLikeFeed(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<rss") || strings.Contains(lower, "<feed")
}

// Parse extracts raw postings from an RSS or Atom body. Items without a title
// or a usable link are skipped. An empty feed returns a non-nil empty slice.
func Parse(body, feedName string) ([]model.RawPosting, error) {
	if !LooksLikeFeed(body) {
		return nil, ErrMalformedFeedContent
	}

	parsed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeedContent, err)
	}

	fallback := fallbackCompany(feedName)
	out := make([]model.RawPosting, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := normalize.StripMarkup(item.Title)
		link := extractLink(item)
		if title == "" || link == "" {
			continue
		}

		role, company := splitCompany(title)
		if company == "" {
			company = fallback
		}

		out = append(out, model.RawPosting{
			ExternalID:  item.GUID,
			Title:       role,
			Company:     company,
			Description: normalize.StripMarkup(description(item)),
			URL:         link,
			Posted:      publishedAt(item),
		})
	}
	return out, nil
}

// extractLink prefers the explicit link, falling back to the GUID when it
// looks like an HTTP URL.
func extractLink(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	if guid := strings.TrimSpace(item.GUID); strings.HasPrefix(guid, httpPrefix) {
		return guid
	}
	return ""
}

func description(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}
	return item.Content
}

// publishedAt renders the item timestamp as RFC3339, or the raw value when
// gofeed could not parse it. Returns "" when the item carries no date.
func publishedAt(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.Format(time.RFC3339)
	case item.Published != "":
		return item.Published
	}
	return item.Updated
}

// splitCompany splits "<Role> - <Company>" on the last separator. Titles
// without one come back unchanged with an empty company.
func splitCompany(title string) (role, company string) {
	i := strings.LastIndex(title, companySeparator)
	if i <= 0 {
		return title, ""
	}
	role = strings.TrimSpace(title[:i])
	company = strings.TrimSpace(title[i+len(companySeparator):])
	if role == "" || company == "" {
		return title, ""
	}
	return role, company
}

// fallbackCompany strips a leading brand prefix from a feed name
// ("Indeed: Tech Jobs" → "Tech Jobs", "We Work Remotely - Design" → "Design").
func fallbackCompany(feedName string) string {
	name := strings.TrimSpace(feedName)
	cut := -1
	sepLen := 0
	if i := strings.Index(name, ":"); i >= 0 {
		cut, sepLen = i, 1
	}
	if i := strings.Index(name, companySeparator); i >= 0 && (cut < 0 || i < cut) {
		cut, sepLen = i, len(companySeparator)
	}
	if cut < 0 {
		return name
	}
	if rest := strings.TrimSpace(name[cut+sepLen:]); rest != "" {
		return rest
	}
	return name
}
