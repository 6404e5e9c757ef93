// Package lifecycle defines the state machines for postings and discovery runs.
//
// Posting status graph:
//
//	new ──► saved ──► applied
//	 │        │
//	 │        └─────► not_interested
//	 ├──────────────► applied
//	 └──────────────► not_interested
//
// applied and not_interested are terminal states.
//
// Run status graph:
//
//	running ──► completed
//	   └──────► failed
package lifecycle

import (
	"fmt"

	"jobmate/exec-discovery/internal/model"
)

// validPostingTransitions lists every allowed (from → to) pair.
var validPostingTransitions = map[model.PostingStatus][]model.PostingStatus{
	model.StatusNew:   {model.StatusSaved, model.StatusNotInterested, model.StatusApplied},
	model.StatusSaved: {model.StatusApplied, model.StatusNotInterested},
	// applied and not_interested are terminal: no outgoing transitions
}

var validRunTransitions = map[model.RunStatus][]model.RunStatus{
	model.RunRunning: {model.RunCompleted, model.RunFailed},
}

// TransitionError is returned when a requested status change is not allowed.
type TransitionError struct {
	From, To string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s → %s is not allowed", e.From, e.To)
}

// ParsePostingStatus converts a raw string to a PostingStatus, returning an
// error for unknown values.
func ParsePostingStatus(s string) (model.PostingStatus, error) {
	st := model.PostingStatus(s)
	switch st {
	case model.StatusNew, model.StatusSaved, model.StatusNotInterested, model.StatusApplied:
		return st, nil
	}
	return "", fmt.Errorf("unknown posting status %q", s)
}

// IsPostingTransitionAllowed returns true when moving from → to is permitted.
func IsPostingTransitionAllowed(from, to model.PostingStatus) bool {
	return contains(validPostingTransitions[from], to)
}

// CheckPostingTransition returns a *TransitionError when from → to is not allowed.
func CheckPostingTransition(from, to model.PostingStatus) error {
	if !IsPostingTransitionAllowed(from, to) {
		return &TransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// IsRunTransitionAllowed returns true when a run may move from → to.
func IsRunTransitionAllowed(from, to model.RunStatus) bool {
	return contains(validRunTransitions[from], to)
}

// IsTerminalRun reports whether a run status accepts no further mutation.
func IsTerminalRun(s model.RunStatus) bool {
	return s == model.RunCompleted || s == model.RunFailed
}

func contains[T comparable](allowed []T, v T) bool {
	for _, s := range allowed {
		if s == v {
			return true
		}
	}
	return false
}
