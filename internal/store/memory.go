package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"jobmate/exec-discovery/internal/model"
	"jobmate/exec-discovery/internal/scoring"
)

// Memory is a process-local Repository. It is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	postings   map[string]*model.Posting
	byLocator  map[string]string
	feeds      map[string]*model.Feed
	runs       map[string]*model.Run
	candidates map[string]*model.CandidateProfile
	now        func() time.Time
}

var _ Repository = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		postings:   make(map[string]*model.Posting),
		byLocator:  make(map[string]string),
		feeds:      make(map[string]*model.Feed),
		runs:       make(map[string]*model.Run),
		candidates: make(map[string]*model.CandidateProfile),
		now:        time.Now,
	}
}

// ─── Postings ────────────────────────────────────────────────────────────────

func (m *Memory) CreatePosting(_ context.Context, p *model.Posting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byLocator[p.SourceURL]; exists {
		return false, nil
	}
	p.ID = uuid.NewString()
	p.CreatedAt = m.now().UTC()
	stored := *p
	m.postings[p.ID] = &stored
	m.byLocator[p.SourceURL] = p.ID
	return true, nil
}

func (m *Memory) GetPosting(_ context.Context, id string) (*model.Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.postings[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *Memory) ListPostings(_ context.Context, f PostingFilter) ([]model.Posting, error) {
	m.mu.RLock()
	out := make([]model.Posting, 0, len(m.postings))
	for _, p := range m.postings {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if p.MatchScore < f.MinScore {
			continue
		}
		if f.MaxScore > 0 && p.MatchScore > f.MaxScore {
			continue
		}
		out = append(out, *p)
	}
	m.mu.RUnlock()

	scoring.Rank(out)
	if limit := f.limit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) RecentLocators(_ context.Context, limit int) ([]string, error) {
	m.mu.RLock()
	all := make([]*model.Posting, 0, len(m.postings))
	for _, p := range m.postings {
		all = append(all, p)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].SourceURL < all[j].SourceURL
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]string, 0, len(all))
	for _, p := range all {
		out = append(out, p.SourceURL)
	}
	return out, nil
}

func (m *Memory) UpdatePostingStatus(_ context.Context, id string, status model.PostingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.postings[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *Memory) UpdatePostingScore(_ context.Context, id string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.postings[id]
	if !ok {
		return ErrNotFound
	}
	p.MatchScore = score
	return nil
}

func (m *Memory) DeletePosting(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.postings[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byLocator, p.SourceURL)
	delete(m.postings, id)
	return nil
}

func (m *Memory) CountDistinctCompanies(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{}, len(m.postings))
	for _, p := range m.postings {
		seen[p.Company] = struct{}{}
	}
	return len(seen), nil
}

// ─── Feeds ───────────────────────────────────────────────────────────────────

func (m *Memory) ListFeeds(_ context.Context) ([]model.Feed, error) {
	m.mu.RLock()
	out := make([]model.Feed, 0, len(m.feeds))
	for _, f := range m.feeds {
		out = append(out, *f)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) EnsureFeed(_ context.Context, f *model.Feed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.feeds {
		if existing.URL == f.URL {
			*f = *existing
			return nil
		}
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = model.FeedActive
	}
	stored := *f
	m.feeds[f.ID] = &stored
	return nil
}

func (m *Memory) UpdateFeed(_ context.Context, f model.Feed) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.feeds[f.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = f.Status
	existing.PostingsFound = f.PostingsFound
	existing.LastRefreshedAt = f.LastRefreshedAt
	existing.LastError = f.LastError
	return nil
}

// ─── Runs ────────────────────────────────────────────────────────────────────

func (m *Memory) CreateRun(_ context.Context, r *model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	stored := *r
	m.runs[r.ID] = &stored
	return nil
}

func (m *Memory) FinishRun(_ context.Context, r *model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[r.ID]; !ok {
		return ErrNotFound
	}
	stored := *r
	stored.Sources = append([]model.SourceReport(nil), r.Sources...)
	m.runs[r.ID] = &stored
	return nil
}

func (m *Memory) GetRun(_ context.Context, id string) (*model.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *r
	return &out, nil
}

// ─── Candidates ──────────────────────────────────────────────────────────────

func (m *Memory) GetCandidate(_ context.Context, id string) (*model.CandidateProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (m *Memory) ListActiveCandidates(_ context.Context) ([]model.CandidateProfile, error) {
	m.mu.RLock()
	out := make([]model.CandidateProfile, 0, len(m.candidates))
	for _, p := range m.candidates {
		if p.Active {
			out = append(out, *p)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SaveCandidate(_ context.Context, p *model.CandidateProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	stored := *p
	m.candidates[p.ID] = &stored
	return nil
}
