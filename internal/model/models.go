// Package model defines shared data structures for the discovery service.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Field length caps applied by the normalizer.
const (
	MaxTitleLen       = 200
	MaxCompanyLen     = 100
	MaxDescriptionLen = 1000
)

// SourceKind identifies the type of surface a posting was discovered on.
type SourceKind string

const (
	SourceKindAPI        SourceKind = "api"
	SourceKindRSSFeed    SourceKind = "rss_feed"
	SourceKindCareerPage SourceKind = "career_page"
)

// PostingStatus mirrors the posting_status enum in PostgreSQL.
// Only downstream collaborators move a posting past StatusNew.
type PostingStatus string

const (
	StatusNew           PostingStatus = "new"
	StatusSaved         PostingStatus = "saved"
	StatusNotInterested PostingStatus = "not_interested"
	StatusApplied       PostingStatus = "applied"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SourceInfo describes a source adapter to the normalizer and the run report.
type SourceInfo struct {
	Name            string
	Kind            SourceKind
	DefaultLocation string
}

// RawPosting is an offer as emitted by a source adapter, before normalization.
// Every field is optional; the normalizer substitutes defaults.
type RawPosting struct {
	ExternalID      string `json:"externalId,omitempty"`
	Title           string `json:"title"`
	Company         string `json:"company"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	WorkArrangement string `json:"workArrangement,omitempty"`
	Industry        string `json:"industry,omitempty"`
	URL             string `json:"url"`
	Posted          string `json:"posted,omitempty"`
}

// Posting is a discovered job, normalized to the canonical schema and stored
// in the postings table.
type Posting struct {
	ID              string        `json:"id" db:"id"`
	Title           string        `json:"title" db:"title" validate:"required"`
	Company         string        `json:"company" db:"company"`
	Description     string        `json:"description" db:"description"`
	Location        string        `json:"location" db:"location"`
	WorkArrangement string        `json:"workArrangement" db:"work_arrangement"`
	Industry        string        `json:"industry,omitempty" db:"industry"`
	SourceName      string        `json:"sourceName" db:"source_name" validate:"required"`
	SourceKind      SourceKind    `json:"sourceKind" db:"source_kind" validate:"oneof=api rss_feed career_page"`
	SourceURL       string        `json:"sourceUrl" db:"source_url" validate:"required,url"`
	PostedDate      time.Time     `json:"postedDate" db:"posted_date"`
	Status          PostingStatus `json:"status" db:"status" validate:"oneof=new saved not_interested applied"`
	MatchScore      int           `json:"matchScore" db:"match_score" validate:"gte=0,lte=100"`
	CreatedAt       time.Time     `json:"createdAt" db:"created_at"`
}

// Validate checks the fields required before a posting can be persisted.
func (p *Posting) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid posting %q: %w", p.SourceURL, err)
	}
	return nil
}

// IsRemote reports whether the posting advertises remote work, either through
// its work arrangement tag or its location text.
func (p *Posting) IsRemote() bool {
	return strings.Contains(strings.ToLower(p.WorkArrangement), "remote") ||
		strings.Contains(strings.ToLower(p.Location), "remote")
}

// ErrNoCriteriaConfigured is returned when a candidate has no target roles.
// It is the only error that fails a discovery run.
var ErrNoCriteriaConfigured = errors.New("no search criteria configured: target roles are required")

// RemoteMarker is the remote-preference value that makes remote postings
// acceptable regardless of location.
const RemoteMarker = "fully remote"

// Criteria holds the search constraints a posting is scored against.
type Criteria struct {
	TargetRoles        []string `json:"targetRoles" validate:"required,min=1,dive,required"`
	Industries         []string `json:"industries,omitempty"`
	PreferredLocations []string `json:"preferredLocations,omitempty"`
	RemoteOK           bool     `json:"remoteOk"`
}

// NewCriteria trims every list and validates that at least one target role
// remains. Order of target roles is preserved.
func NewCriteria(roles, industries, locations []string, remoteOK bool) (Criteria, error) {
	c := Criteria{
		TargetRoles:        compact(roles),
		Industries:         compact(industries),
		PreferredLocations: compact(locations),
		RemoteOK:           remoteOK,
	}
	if err := validate.Struct(c); err != nil {
		return Criteria{}, fmt.Errorf("%w (%v)", ErrNoCriteriaConfigured, err)
	}
	return c, nil
}

// CandidateProfile mirrors the candidate_profiles table row relevant to discovery.
type CandidateProfile struct {
	ID                 string   `json:"id"`
	TargetRoles        []string `json:"targetRoles"`
	Industries         []string `json:"industries"`
	PreferredLocations []string `json:"preferredLocations"`
	RemotePreferences  []string `json:"remotePreferences"`
	Active             bool     `json:"active"`
}

// Criteria derives the scoring criteria from the profile.
func (p *CandidateProfile) Criteria() (Criteria, error) {
	remoteOK := false
	for _, pref := range p.RemotePreferences {
		if strings.Contains(strings.ToLower(pref), RemoteMarker) {
			remoteOK = true
			break
		}
	}
	return NewCriteria(p.TargetRoles, p.Industries, p.PreferredLocations, remoteOK)
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
