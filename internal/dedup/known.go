// Package dedup tracks the source locators already persisted so that at most
// one posting exists per locator, across runs and across adapters in a run.
package dedup

import "sync"

// KnownSet is the in-memory set of known source locators. It is safe for
// concurrent use.
type KnownSet struct {
	mu    sync.Mutex
	known map[string]struct{}
}

// NewKnownSet seeds the set with the given locators. Empty strings are ignored.
func NewKnownSet(locators []string) *KnownSet {
	s := &KnownSet{known: make(map[string]struct{}, len(locators))}
	for _, l := range locators {
		if l != "" {
			s.known[l] = struct{}{}
		}
	}
	return s
}

// IsKnown reports whether locator has been seen.
func (s *KnownSet) IsKnown(locator string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.known[locator]
	return ok
}

// MarkKnown records locator as seen.
func (s *KnownSet) MarkKnown(locator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[locator] = struct{}{}
}

// Admit atomically checks and registers locator. It returns true only for the
// first caller to present a locator; every later call returns false.
func (s *KnownSet) Admit(locator string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.known[locator]; ok {
		return false
	}
	s.known[locator] = struct{}{}
	return true
}

// Forget removes locator, used when a posting admitted by Admit could not be
// persisted.
func (s *KnownSet) Forget(locator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.known, locator)
}

// Len returns the number of known locators.
func (s *KnownSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.known)
}
