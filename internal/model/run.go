package model

import "time"

// RunStatus mirrors the discovery_run_status enum in PostgreSQL.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// SourceReport is the per-source outcome of one run.
type SourceReport struct {
	Name       string     `json:"name"`
	Kind       SourceKind `json:"kind"`
	Attempted  bool       `json:"attempted"`
	Found      int        `json:"found"`
	Created    int        `json:"created"`
	Duplicates int        `json:"duplicates"`
	Filtered   int        `json:"filtered"`
	Error      string     `json:"error,omitempty"`
	ErrorKind  string     `json:"errorKind,omitempty"`
}

// Run is one execution of the discovery orchestration.
type Run struct {
	ID             string         `json:"id"`
	CandidateID    string         `json:"candidateId"`
	StartedAt      time.Time      `json:"startedAt"`
	FinishedAt     *time.Time     `json:"finishedAt,omitempty"`
	Status         RunStatus      `json:"status"`
	PostingsFound  int            `json:"postingsFound"`
	CompaniesFound int            `json:"companiesFound"`
	FeedsScanned   int            `json:"feedsScanned"`
	Duration       time.Duration  `json:"duration"`
	Error          string         `json:"error,omitempty"`
	Sources        []SourceReport `json:"sources"`
}
