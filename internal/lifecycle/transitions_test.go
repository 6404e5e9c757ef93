package lifecycle_test

import (
	"errors"
	"testing"

	"jobmate/exec-discovery/internal/lifecycle"
	"jobmate/exec-discovery/internal/model"
)

var allPostingStatuses = []model.PostingStatus{
	model.StatusNew,
	model.StatusSaved,
	model.StatusNotInterested,
	model.StatusApplied,
}

// ── ParsePostingStatus ─────────────────────────────────────────────────────

func TestParsePostingStatus_ValidValues(t *testing.T) {
	for _, s := range []string{"new", "saved", "not_interested", "applied"} {
		got, err := lifecycle.ParsePostingStatus(s)
		if err != nil {
			t.Errorf("ParsePostingStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParsePostingStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

// Status values are case-sensitive and must not be padded.
func TestParsePostingStatus_Invalid(t *testing.T) {
	for _, s := range []string{"", "NEW", "Saved", " applied", "archived"} {
		if _, err := lifecycle.ParsePostingStatus(s); err == nil {
			t.Errorf("ParsePostingStatus(%q) expected error, got nil", s)
		}
	}
}

// ── Posting transitions ────────────────────────────────────────────────────

func TestIsPostingTransitionAllowed_FromNew(t *testing.T) {
	for _, to := range []model.PostingStatus{model.StatusSaved, model.StatusNotInterested, model.StatusApplied} {
		if !lifecycle.IsPostingTransitionAllowed(model.StatusNew, to) {
			t.Errorf("IsPostingTransitionAllowed(new → %s) should be true", to)
		}
	}
}

func TestIsPostingTransitionAllowed_FromSaved(t *testing.T) {
	if !lifecycle.IsPostingTransitionAllowed(model.StatusSaved, model.StatusApplied) {
		t.Error("saved → applied should be allowed")
	}
	if !lifecycle.IsPostingTransitionAllowed(model.StatusSaved, model.StatusNotInterested) {
		t.Error("saved → not_interested should be allowed")
	}
	if lifecycle.IsPostingTransitionAllowed(model.StatusSaved, model.StatusNew) {
		t.Error("saved → new should be forbidden")
	}
}

func TestIsPostingTransitionAllowed_TerminalStatesHaveNoOutgoing(t *testing.T) {
	for _, from := range []model.PostingStatus{model.StatusApplied, model.StatusNotInterested} {
		for _, to := range allPostingStatuses {
			if lifecycle.IsPostingTransitionAllowed(from, to) {
				t.Errorf("IsPostingTransitionAllowed(%s → %s) must be false: %s is terminal", from, to, from)
			}
		}
	}
}

// new is only an initial state.
func TestIsPostingTransitionAllowed_NewIsNeverReachable(t *testing.T) {
	for _, from := range allPostingStatuses {
		if lifecycle.IsPostingTransitionAllowed(from, model.StatusNew) {
			t.Errorf("IsPostingTransitionAllowed(%s → new) must be false", from)
		}
	}
}

func TestCheckPostingTransition_ReturnsTypedError(t *testing.T) {
	err := lifecycle.CheckPostingTransition(model.StatusApplied, model.StatusSaved)
	var te *lifecycle.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("CheckPostingTransition error = %v, want *TransitionError", err)
	}
	if te.From != "applied" || te.To != "saved" {
		t.Errorf("TransitionError = %+v", te)
	}
	if err := lifecycle.CheckPostingTransition(model.StatusNew, model.StatusSaved); err != nil {
		t.Errorf("CheckPostingTransition(new → saved) unexpected error: %v", err)
	}
}

// ── Run transitions ────────────────────────────────────────────────────────

func TestRunTransitions(t *testing.T) {
	cases := []struct {
		from, to model.RunStatus
		want     bool
	}{
		{model.RunRunning, model.RunCompleted, true},
		{model.RunRunning, model.RunFailed, true},
		{model.RunCompleted, model.RunFailed, false},
		{model.RunFailed, model.RunCompleted, false},
		{model.RunCompleted, model.RunRunning, false},
		{model.RunRunning, model.RunRunning, false},
	}
	for _, c := range cases {
		if got := lifecycle.IsRunTransitionAllowed(c.from, c.to); got != c.want {
			t.Errorf("IsRunTransitionAllowed(%s → %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminalRun(t *testing.T) {
	if lifecycle.IsTerminalRun(model.RunRunning) {
		t.Error("running must not be terminal")
	}
	if !lifecycle.IsTerminalRun(model.RunCompleted) || !lifecycle.IsTerminalRun(model.RunFailed) {
		t.Error("completed and failed must be terminal")
	}
}
