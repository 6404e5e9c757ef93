package discovery

import (
	"time"

	"jobmate/exec-discovery/internal/model"
)

// RunResult is what callers of Run receive: the overall outcome plus a
// per-source breakdown.
type RunResult struct {
	RunID             string               `json:"runId"`
	CandidateID       string               `json:"candidateId"`
	Status            model.RunStatus      `json:"status"`
	NewPostings       int                  `json:"newPostings"`
	DistinctCompanies int                  `json:"distinctCompanies"`
	FeedsScanned      int                  `json:"feedsScanned"`
	Duration          time.Duration        `json:"duration"`
	Error             string               `json:"error,omitempty"`
	Sources           []model.SourceReport `json:"sources"`
}

// Succeeded reports whether the run completed.
func (r *RunResult) Succeeded() bool {
	return r.Status == model.RunCompleted
}

// FailedSources returns the reports of sources that errored.
func (r *RunResult) FailedSources() []model.SourceReport {
	var out []model.SourceReport
	for _, s := range r.Sources {
		if s.Error != "" {
			out = append(out, s)
		}
	}
	return out
}

func newRunResult(run *model.Run) *RunResult {
	sources := run.Sources
	if sources == nil {
		sources = []model.SourceReport{}
	}
	return &RunResult{
		RunID:             run.ID,
		CandidateID:       run.CandidateID,
		Status:            run.Status,
		NewPostings:       run.PostingsFound,
		DistinctCompanies: run.CompaniesFound,
		FeedsScanned:      run.FeedsScanned,
		Duration:          run.Duration,
		Error:             run.Error,
		Sources:           sources,
	}
}
