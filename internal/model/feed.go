package model

import "time"

// FeedStatus mirrors the feed_status enum in PostgreSQL.
type FeedStatus string

const (
	FeedActive FeedStatus = "active"
	FeedPaused FeedStatus = "paused"
	FeedError  FeedStatus = "error"
)

// Feed is a configured syndication source. Feeds are created by surrounding
// configuration; the discovery run only updates their health fields.
type Feed struct {
	ID              string     `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	URL             string     `json:"url" db:"url"`
	Status          FeedStatus `json:"status" db:"status"`
	PostingsFound   int        `json:"postingsFound" db:"postings_found"`
	LastRefreshedAt *time.Time `json:"lastRefreshedAt,omitempty" db:"last_refreshed_at"`
	LastError       string     `json:"lastError,omitempty" db:"last_error"`
}

// Fetchable reports whether the feed should be polled during a run.
// Feeds in error state are retried; paused feeds are skipped.
func (f *Feed) Fetchable() bool {
	return f.Status != FeedPaused
}
