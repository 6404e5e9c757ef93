package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"jobmate/exec-discovery/internal/model"
)

//go:embed schema.sql
var schema string

// Postgres is the PostgreSQL-backed Repository.
type Postgres struct {
	db *sqlx.DB
}

var _ Repository = (*Postgres)(nil)

// NewPostgres wraps an open connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables when they do not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ─── Postings ────────────────────────────────────────────────────────────────

const postingColumns = `id::text AS id, title, company, description, location, work_arrangement,
	industry, source_name, source_kind, source_url, posted_date, status, match_score, created_at`

func (s *Postgres) CreatePosting(ctx context.Context, p *model.Posting) (bool, error) {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO postings (title, company, description, location, work_arrangement, industry,
		                       source_name, source_kind, source_url, posted_date, status, match_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (source_url) DO NOTHING
		 RETURNING id::text, created_at`,
		p.Title, p.Company, p.Description, p.Location, p.WorkArrangement, p.Industry,
		p.SourceName, string(p.SourceKind), p.SourceURL, p.PostedDate, string(p.Status), p.MatchScore,
	).Scan(&p.ID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert posting %q: %w", p.SourceURL, err)
	}
	return true, nil
}

func (s *Postgres) GetPosting(ctx context.Context, id string) (*model.Posting, error) {
	var p model.Posting
	err := s.db.GetContext(ctx, &p, `SELECT `+postingColumns+` FROM postings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}
	return &p, nil
}

func (s *Postgres) ListPostings(ctx context.Context, f PostingFilter) ([]model.Posting, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.MinScore > 0 {
		args = append(args, f.MinScore)
		where = append(where, fmt.Sprintf("match_score >= $%d", len(args)))
	}
	if f.MaxScore > 0 {
		args = append(args, f.MaxScore)
		where = append(where, fmt.Sprintf("match_score <= $%d", len(args)))
	}

	q := `SELECT ` + postingColumns + ` FROM postings`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.limit())
	q += fmt.Sprintf(` ORDER BY match_score DESC, posted_date DESC, source_url ASC LIMIT $%d`, len(args))

	out := []model.Posting{}
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	return out, nil
}

func (s *Postgres) RecentLocators(ctx context.Context, limit int) ([]string, error) {
	var out []string
	err := s.db.SelectContext(ctx, &out,
		`SELECT source_url FROM postings ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent locators: %w", err)
	}
	return out, nil
}

func (s *Postgres) UpdatePostingStatus(ctx context.Context, id string, status model.PostingStatus) error {
	return s.execOne(ctx, "update posting status",
		`UPDATE postings SET status = $2 WHERE id = $1`, id, string(status))
}

func (s *Postgres) UpdatePostingScore(ctx context.Context, id string, score int) error {
	return s.execOne(ctx, "update posting score",
		`UPDATE postings SET match_score = $2 WHERE id = $1`, id, score)
}

func (s *Postgres) DeletePosting(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete posting", `DELETE FROM postings WHERE id = $1`, id)
}

func (s *Postgres) CountDistinctCompanies(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(DISTINCT company) FROM postings`); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return n, nil
}

// ─── Feeds ───────────────────────────────────────────────────────────────────

const feedColumns = `id::text AS id, name, url, status, postings_found, last_refreshed_at, last_error`

func (s *Postgres) ListFeeds(ctx context.Context) ([]model.Feed, error) {
	out := []model.Feed{}
	if err := s.db.SelectContext(ctx, &out, `SELECT `+feedColumns+` FROM feeds ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	return out, nil
}

func (s *Postgres) EnsureFeed(ctx context.Context, f *model.Feed) error {
	status := f.Status
	if status == "" {
		status = model.FeedActive
	}
	err := s.db.GetContext(ctx, f,
		`INSERT INTO feeds (name, url, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
		 RETURNING `+feedColumns,
		f.Name, f.URL, string(status))
	if err != nil {
		return fmt.Errorf("ensure feed %q: %w", f.URL, err)
	}
	return nil
}

func (s *Postgres) UpdateFeed(ctx context.Context, f model.Feed) error {
	return s.execOne(ctx, "update feed",
		`UPDATE feeds
		 SET status = $2, postings_found = $3, last_refreshed_at = $4, last_error = $5
		 WHERE id = $1`,
		f.ID, string(f.Status), f.PostingsFound, f.LastRefreshedAt, f.LastError)
}

// ─── Runs ────────────────────────────────────────────────────────────────────

type runRow struct {
	ID             string                      `db:"id"`
	CandidateID    string                      `db:"candidate_id"`
	StartedAt      time.Time                   `db:"started_at"`
	FinishedAt     *time.Time                  `db:"finished_at"`
	Status         string                      `db:"status"`
	PostingsFound  int                         `db:"postings_found"`
	CompaniesFound int                         `db:"companies_found"`
	FeedsScanned   int                         `db:"feeds_scanned"`
	DurationMS     int64                       `db:"duration_ms"`
	Error          string                      `db:"error"`
	Sources        jsonb[[]model.SourceReport] `db:"sources"`
}

func (r runRow) toModel() *model.Run {
	return &model.Run{
		ID:             r.ID,
		CandidateID:    r.CandidateID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Status:         model.RunStatus(r.Status),
		PostingsFound:  r.PostingsFound,
		CompaniesFound: r.CompaniesFound,
		FeedsScanned:   r.FeedsScanned,
		Duration:       time.Duration(r.DurationMS) * time.Millisecond,
		Error:          r.Error,
		Sources:        r.Sources.Val,
	}
}

func (s *Postgres) CreateRun(ctx context.Context, r *model.Run) error {
	err := s.db.QueryRowxContext(ctx,
		`INSERT INTO discovery_runs (candidate_id, started_at, status, sources)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id::text`,
		r.CandidateID, r.StartedAt, string(r.Status), jsonb[[]model.SourceReport]{Val: nonNilReports(r.Sources)},
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *Postgres) FinishRun(ctx context.Context, r *model.Run) error {
	return s.execOne(ctx, "finish run",
		`UPDATE discovery_runs
		 SET finished_at = $2, status = $3, postings_found = $4, companies_found = $5,
		     feeds_scanned = $6, duration_ms = $7, error = $8, sources = $9
		 WHERE id = $1`,
		r.ID, r.FinishedAt, string(r.Status), r.PostingsFound, r.CompaniesFound,
		r.FeedsScanned, r.Duration.Milliseconds(), r.Error,
		jsonb[[]model.SourceReport]{Val: nonNilReports(r.Sources)})
}

func (s *Postgres) GetRun(ctx context.Context, id string) (*model.Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id::text AS id, candidate_id, started_at, finished_at, status, postings_found,
		        companies_found, feeds_scanned, duration_ms, error, sources
		 FROM discovery_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return row.toModel(), nil
}

func nonNilReports(r []model.SourceReport) []model.SourceReport {
	if r == nil {
		return []model.SourceReport{}
	}
	return r
}

// ─── Candidates ──────────────────────────────────────────────────────────────

type candidateRow struct {
	ID                 string          `db:"id"`
	TargetRoles        jsonb[[]string] `db:"target_roles"`
	Industries         jsonb[[]string] `db:"industries"`
	PreferredLocations jsonb[[]string] `db:"preferred_locations"`
	RemotePreferences  jsonb[[]string] `db:"remote_preferences"`
	Active             bool            `db:"active"`
}

func (r candidateRow) toModel() model.CandidateProfile {
	return model.CandidateProfile{
		ID:                 r.ID,
		TargetRoles:        r.TargetRoles.Val,
		Industries:         r.Industries.Val,
		PreferredLocations: r.PreferredLocations.Val,
		RemotePreferences:  r.RemotePreferences.Val,
		Active:             r.Active,
	}
}

const candidateColumns = `id, target_roles, industries, preferred_locations, remote_preferences, active`

func (s *Postgres) GetCandidate(ctx context.Context, id string) (*model.CandidateProfile, error) {
	var row candidateRow
	err := s.db.GetContext(ctx, &row, `SELECT `+candidateColumns+` FROM candidate_profiles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get candidate: %w", err)
	}
	p := row.toModel()
	return &p, nil
}

func (s *Postgres) ListActiveCandidates(ctx context.Context) ([]model.CandidateProfile, error) {
	var rows []candidateRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+candidateColumns+` FROM candidate_profiles WHERE active = true ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	out := make([]model.CandidateProfile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *Postgres) SaveCandidate(ctx context.Context, p *model.CandidateProfile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate_profiles (id, target_roles, industries, preferred_locations, remote_preferences, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		   target_roles = EXCLUDED.target_roles,
		   industries = EXCLUDED.industries,
		   preferred_locations = EXCLUDED.preferred_locations,
		   remote_preferences = EXCLUDED.remote_preferences,
		   active = EXCLUDED.active`,
		p.ID,
		jsonb[[]string]{Val: p.TargetRoles},
		jsonb[[]string]{Val: p.Industries},
		jsonb[[]string]{Val: p.PreferredLocations},
		jsonb[[]string]{Val: p.RemotePreferences},
		p.Active)
	if err != nil {
		return fmt.Errorf("save candidate: %w", err)
	}
	return nil
}

// execOne runs a single-row mutation and maps "no rows affected" to ErrNotFound.
func (s *Postgres) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
