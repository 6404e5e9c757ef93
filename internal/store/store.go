// Package store persists postings, feeds, runs and candidate profiles.
//
// Two implementations are provided: Postgres (sqlx over the pgx driver) for
// deployments and an in-memory store for local runs and tests.
package store

import (
	"context"
	"errors"

	"jobmate/exec-discovery/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// DefaultListLimit caps ListPostings when the filter sets no limit.
const DefaultListLimit = 100

// PostingFilter narrows ListPostings. Zero values mean "any".
type PostingFilter struct {
	Status   model.PostingStatus
	MinScore int
	// MaxScore is ignored when zero.
	MaxScore int
	Limit    int
}

func (f PostingFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// PostingStore persists discovered postings. The source locator is unique.
type PostingStore interface {
	// CreatePosting inserts p and assigns its ID and CreatedAt. It reports
	// false, without error, when the locator already exists; the existing
	// row is left untouched.
	CreatePosting(ctx context.Context, p *model.Posting) (bool, error)
	GetPosting(ctx context.Context, id string) (*model.Posting, error)
	// ListPostings returns postings ranked by score, posted date, locator.
	ListPostings(ctx context.Context, f PostingFilter) ([]model.Posting, error)
	// RecentLocators returns up to limit locators, most recently created first.
	RecentLocators(ctx context.Context, limit int) ([]string, error)
	UpdatePostingStatus(ctx context.Context, id string, status model.PostingStatus) error
	UpdatePostingScore(ctx context.Context, id string, score int) error
	DeletePosting(ctx context.Context, id string) error
	CountDistinctCompanies(ctx context.Context) (int, error)
}

// FeedStore persists configured syndication feeds.
type FeedStore interface {
	// ListFeeds returns every feed ordered by name.
	ListFeeds(ctx context.Context) ([]model.Feed, error)
	// EnsureFeed registers f unless a feed with the same URL exists. The
	// stored record is written back into f.
	EnsureFeed(ctx context.Context, f *model.Feed) error
	// UpdateFeed writes the health fields of f.
	UpdateFeed(ctx context.Context, f model.Feed) error
}

// RunStore persists discovery run records.
type RunStore interface {
	CreateRun(ctx context.Context, r *model.Run) error
	FinishRun(ctx context.Context, r *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
}

// CandidateStore reads candidate search profiles.
type CandidateStore interface {
	GetCandidate(ctx context.Context, id string) (*model.CandidateProfile, error)
	ListActiveCandidates(ctx context.Context) ([]model.CandidateProfile, error)
	SaveCandidate(ctx context.Context, p *model.CandidateProfile) error
}

// Repository is the full storage surface used by the service.
type Repository interface {
	PostingStore
	FeedStore
	RunStore
	CandidateStore
}
