package feed

import (
	"context"
	"net/http"
	"time"

	"jobmate/exec-discovery/internal/model"
	"jobmate/exec-discovery/internal/scraper"
)

// DefaultLocation is used for feed items, which carry no location field.
const DefaultLocation = "Remote"

const defaultTimeout = 20 * time.Second

// Source adapts one configured feed to scraper.Source. It never mutates the
// feed record; the orchestrator owns feed status.
type Source struct {
	feed    model.Feed
	fetcher HTTPFetcher
	timeout time.Duration
}

// NewSource wraps f. A zero timeout falls back to 20s.
func NewSource(f model.Feed, fetcher HTTPFetcher, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Source{feed: f, fetcher: fetcher, timeout: timeout}
}

// Feed returns the wrapped feed record.
func (s *Source) Feed() model.Feed { return s.feed }

// Info implements scraper.Source.
func (s *Source) Info() model.SourceInfo {
	return model.SourceInfo{Name: s.feed.Name, Kind: model.SourceKindRSSFeed, DefaultLocation: DefaultLocation}
}

// Fetch implements scraper.Source. Criteria are ignored: feeds are not
// queryable, relevance filtering happens downstream.
func (s *Source) Fetch(ctx context.Context, _ model.Criteria) ([]model.RawPosting, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.fetcher.Fetch(ctx, s.feed.URL)
	if err != nil {
		return nil, scraper.ClassifyTransportError(s.feed.Name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, scraper.ClassifyHTTPStatus(s.feed.Name, resp.StatusCode, []byte(resp.Body))
	}

	items, err := Parse(resp.Body, s.feed.Name)
	if err != nil {
		return nil, &scraper.SourceError{Source: s.feed.Name, Kind: scraper.KindMalformed, Cause: err}
	}
	return items, nil
}
