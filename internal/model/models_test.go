package model_test

import (
	"errors"
	"testing"
	"time"

	"jobmate/exec-discovery/internal/model"
)

// ── NewCriteria ────────────────────────────────────────────────────────────

func TestNewCriteria_EmptyRolesFails(t *testing.T) {
	for _, roles := range [][]string{nil, {}, {"", "   "}} {
		_, err := model.NewCriteria(roles, nil, nil, false)
		if !errors.Is(err, model.ErrNoCriteriaConfigured) {
			t.Errorf("NewCriteria(%q) error = %v, want ErrNoCriteriaConfigured", roles, err)
		}
	}
}

func TestNewCriteria_TrimsAndKeepsOrder(t *testing.T) {
	c, err := model.NewCriteria(
		[]string{" VP of Engineering ", "", "CTO"},
		[]string{"SaaS", " "},
		[]string{"Austin, TX"},
		true,
	)
	if err != nil {
		t.Fatalf("NewCriteria unexpected error: %v", err)
	}
	if len(c.TargetRoles) != 2 || c.TargetRoles[0] != "VP of Engineering" || c.TargetRoles[1] != "CTO" {
		t.Errorf("TargetRoles = %q", c.TargetRoles)
	}
	if len(c.Industries) != 1 || c.Industries[0] != "SaaS" {
		t.Errorf("Industries = %q", c.Industries)
	}
	if !c.RemoteOK {
		t.Error("RemoteOK should be preserved")
	}
}

// ── CandidateProfile.Criteria ──────────────────────────────────────────────

func TestCandidateProfile_RemoteMarker(t *testing.T) {
	cases := []struct {
		prefs []string
		want  bool
	}{
		{nil, false},
		{[]string{"Hybrid"}, false},
		{[]string{"Hybrid", "Fully Remote"}, true},
		{[]string{"FULLY REMOTE only"}, true},
	}
	for _, c := range cases {
		p := model.CandidateProfile{TargetRoles: []string{"CTO"}, RemotePreferences: c.prefs}
		got, err := p.Criteria()
		if err != nil {
			t.Fatalf("Criteria() unexpected error: %v", err)
		}
		if got.RemoteOK != c.want {
			t.Errorf("RemotePreferences %q: RemoteOK = %v, want %v", c.prefs, got.RemoteOK, c.want)
		}
	}
}

// ── Posting ────────────────────────────────────────────────────────────────

func validPosting() model.Posting {
	return model.Posting{
		Title:      "VP of Engineering",
		SourceName: "Adzuna",
		SourceKind: model.SourceKindAPI,
		SourceURL:  "https://example.com/jobs/1",
		PostedDate: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Status:     model.StatusNew,
	}
}

func TestPosting_Validate(t *testing.T) {
	p := validPosting()
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	missingURL := validPosting()
	missingURL.SourceURL = ""
	if err := missingURL.Validate(); err == nil {
		t.Error("Validate() should reject a posting without source locator")
	}

	relative := validPosting()
	relative.SourceURL = "/jobs/1"
	if err := relative.Validate(); err == nil {
		t.Error("Validate() should reject a relative source locator")
	}

	badScore := validPosting()
	badScore.MatchScore = 101
	if err := badScore.Validate(); err == nil {
		t.Error("Validate() should reject a score above 100")
	}

	badKind := validPosting()
	badKind.SourceKind = "scraper"
	if err := badKind.Validate(); err == nil {
		t.Error("Validate() should reject an unknown source kind")
	}
}

func TestPosting_IsRemote(t *testing.T) {
	cases := []struct {
		location, arrangement string
		want                  bool
	}{
		{"Remote", "Full-time", true},
		{"Austin, TX", "Remote", true},
		{"Austin, TX", "Full-time", false},
		{"", "", false},
		{"US (remote friendly)", "", true},
	}
	for _, c := range cases {
		p := model.Posting{Location: c.location, WorkArrangement: c.arrangement}
		if got := p.IsRemote(); got != c.want {
			t.Errorf("IsRemote(%q, %q) = %v, want %v", c.location, c.arrangement, got, c.want)
		}
	}
}

func TestFeed_Fetchable(t *testing.T) {
	for status, want := range map[model.FeedStatus]bool{
		model.FeedActive: true,
		model.FeedError:  true,
		model.FeedPaused: false,
	} {
		f := model.Feed{Status: status}
		if got := f.Fetchable(); got != want {
			t.Errorf("Fetchable(%s) = %v, want %v", status, got, want)
		}
	}
}
