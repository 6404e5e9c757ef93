// Package discovery runs the end-to-end discovery cycle for a candidate:
// fetch every source, normalize, filter, deduplicate, persist and report.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobmate/exec-discovery/internal/dedup"
	"jobmate/exec-discovery/internal/events"
	"jobmate/exec-discovery/internal/feed"
	"jobmate/exec-discovery/internal/lifecycle"
	"jobmate/exec-discovery/internal/logger"
	"jobmate/exec-discovery/internal/metrics"
	"jobmate/exec-discovery/internal/model"
	"jobmate/exec-discovery/internal/normalize"
	"jobmate/exec-discovery/internal/scoring"
	"jobmate/exec-discovery/internal/scraper"
	"jobmate/exec-discovery/internal/store"
)

// Defaults applied by New when Options leaves a field unset.
const (
	DefaultKnownWindow   = 5000
	DefaultSourceTimeout = 20 * time.Second
	DefaultParallelLimit = 4
)

// storeErrorKind marks a source report whose postings could not all be saved.
const storeErrorKind = "store_error"

// Options tunes one orchestrator.
type Options struct {
	// Score computes the match score inline and drops postings below the
	// match threshold. When false, feed postings go through the keyword
	// pre-filter instead and scores stay at 0.
	Score bool
	// Parallel fetches sources concurrently, at most ParallelLimit at a time.
	Parallel      bool
	ParallelLimit int
	// KnownWindow is how many recent locators seed the known set.
	KnownWindow int
	// SourceTimeout bounds each adapter invocation.
	SourceTimeout time.Duration
}

// Deps are the collaborators of an Orchestrator. Events and Metrics may be nil.
type Deps struct {
	Store   store.Repository
	Sources []scraper.Source
	Feeds   feed.HTTPFetcher
	Events  *events.Publisher
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Orchestrator is the only writer of postings, feeds and runs during a run.
type Orchestrator struct {
	store   store.Repository
	sources []scraper.Source
	feeds   feed.HTTPFetcher
	events  *events.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	opts    Options
	now     func() time.Time
	// wg tracks runs launched by Start; shared by WithScore copies.
	wg      *sync.WaitGroup
}

// New constructs an Orchestrator.
func New(d Deps, opts Options) *Orchestrator {
	if opts.KnownWindow <= 0 {
		opts.KnownWindow = DefaultKnownWindow
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = DefaultSourceTimeout
	}
	if opts.ParallelLimit <= 0 {
		opts.ParallelLimit = DefaultParallelLimit
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	fetcher := d.Feeds
	if fetcher == nil {
		fetcher = feed.NewHTTPFetcher(nil, "")
	}
	return &Orchestrator{
		store:   d.Store,
		sources: d.Sources,
		feeds:   fetcher,
		events:  d.Events,
		metrics: d.Metrics,
		log:     log.Named("discovery"),
		opts:    opts,
		now:     time.Now,
		wg:      &sync.WaitGroup{},
	}
}

// WithScore returns a copy of o with inline scoring switched on or off.
func (o *Orchestrator) WithScore(score bool) *Orchestrator {
	c := *o
	c.opts.Score = score
	return &c
}

// Run executes one discovery run for candidateID and waits for it to finish.
// Only a missing or empty candidate profile fails the run before any fetch;
// the returned error then wraps model.ErrNoCriteriaConfigured. Source and feed
// failures are absorbed into the per-source report. Any other failure after
// the run record exists marks the run failed before it is returned.
//
// Cancelling ctx does not interrupt a run: once started it always reaches a
// terminal state. Each adapter call stays bounded by Options.SourceTimeout.
func (o *Orchestrator) Run(ctx context.Context, candidateID string) (*RunResult, error) {
	ctx = context.WithoutCancel(ctx)
	p, res, err := o.begin(ctx, candidateID)
	if p == nil {
		return res, err
	}
	return o.execute(ctx, p)
}

// Start creates the run record and checks the candidate's criteria like Run,
// then finishes the run in the background. The returned result describes the
// run as started. Wait blocks until every started run is done.
func (o *Orchestrator) Start(ctx context.Context, candidateID string) (*RunResult, error) {
	ctx = context.WithoutCancel(ctx)
	p, res, err := o.begin(ctx, candidateID)
	if p == nil {
		return res, err
	}

	started := newRunResult(p.run)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if _, err := o.execute(ctx, p); err != nil {
			p.log.Error("background discovery run failed", zap.Error(err))
		}
	}()
	return started, nil
}

// Wait blocks until every run launched by Start has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// pendingRun is a run whose record exists and whose criteria are valid.
type pendingRun struct {
	run      *model.Run
	criteria model.Criteria
	log      *zap.Logger
}

// begin creates the run record and loads the criteria. A nil pendingRun means
// the run is over: either it could not be created or it failed fast.
func (o *Orchestrator) begin(ctx context.Context, candidateID string) (*pendingRun, *RunResult, error) {
	run := &model.Run{
		CandidateID: candidateID,
		StartedAt:   o.now().UTC(),
		Status:      model.RunRunning,
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("create run: %w", err)
	}

	log := o.log.With(zap.String("run_id", run.ID), zap.String("candidate_id", candidateID))
	log.Info("starting discovery run")

	criteria, err := o.loadCriteria(ctx, candidateID)
	if err != nil {
		log.Warn("run failed before fetching", zap.Error(err))
		res, err := o.fail(ctx, run, err)
		return nil, res, err
	}
	return &pendingRun{run: run, criteria: criteria, log: log}, nil, nil
}

// execute fetches every source and finishes the run.
func (o *Orchestrator) execute(ctx context.Context, p *pendingRun) (*RunResult, error) {
	run, log := p.run, p.log

	locators, err := o.store.RecentLocators(ctx, o.opts.KnownWindow)
	if err != nil {
		log.Error("load known locators failed", zap.Error(err))
		return o.fail(ctx, run, fmt.Errorf("load known locators: %w", err))
	}
	known := dedup.NewKnownSet(locators)

	sources := o.sourcesForRun(ctx, log)
	reports := o.fetchAll(ctx, sources, p.criteria, known, log)

	feedsScanned := 0
	for i, src := range sources {
		fs, ok := src.(*feed.Source)
		if !ok {
			continue
		}
		feedsScanned++
		o.recordFeed(ctx, fs.Feed(), reports[i], log)
	}

	created := 0
	for _, r := range reports {
		created += r.Created
		o.metrics.ObserveSource(r)
	}

	companies, err := o.store.CountDistinctCompanies(ctx)
	if err != nil {
		log.Warn("count distinct companies failed", zap.Error(err))
	}

	run.PostingsFound = created
	run.CompaniesFound = companies
	run.FeedsScanned = feedsScanned
	run.Sources = reports
	if err := o.finish(ctx, run, model.RunCompleted, ""); err != nil {
		log.Error("completing run failed", zap.Error(err))
		return o.fail(ctx, run, err)
	}

	log.Info("discovery run completed",
		zap.Int("created", created),
		zap.Int("companies", companies),
		zap.Int("feeds", feedsScanned),
		zap.Duration("duration", run.Duration),
	)
	return newRunResult(run), nil
}

// fail moves run to failed with cause as its error and returns cause. When
// the failed state cannot be stored either, both errors are returned.
func (o *Orchestrator) fail(ctx context.Context, run *model.Run, cause error) (*RunResult, error) {
	if err := o.finish(ctx, run, model.RunFailed, cause.Error()); err != nil {
		return nil, errors.Join(cause, err)
	}
	return newRunResult(run), cause
}

// RunAll runs discovery for every active candidate, one after another.
// A failure for one candidate is logged and does not stop the others.
func (o *Orchestrator) RunAll(ctx context.Context) error {
	candidates, err := o.store.ListActiveCandidates(ctx)
	if err != nil {
		return fmt.Errorf("list active candidates: %w", err)
	}
	o.log.Info("running discovery for active candidates", zap.Int("count", len(candidates)))

	for _, c := range candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := o.Run(ctx, c.ID); err != nil {
			o.log.Error("discovery run failed", zap.String("candidate_id", c.ID), zap.Error(err))
		}
	}
	return nil
}

// Rescore recomputes the match score of the candidate's stored postings that
// are still new and returns how many scores changed.
func (o *Orchestrator) Rescore(ctx context.Context, candidateID string) (int, error) {
	criteria, err := o.loadCriteria(ctx, candidateID)
	if err != nil {
		return 0, err
	}

	postings, err := o.store.ListPostings(ctx, store.PostingFilter{
		Status: model.StatusNew,
		Limit:  o.opts.KnownWindow,
	})
	if err != nil {
		return 0, fmt.Errorf("list postings: %w", err)
	}

	changed := 0
	for i := range postings {
		p := &postings[i]
		score := scoring.Score(p, criteria)
		if score == p.MatchScore {
			continue
		}
		if err := o.store.UpdatePostingScore(ctx, p.ID, score); err != nil {
			return changed, fmt.Errorf("update score %s: %w", p.ID, err)
		}
		changed++
	}
	o.log.Info("rescored postings",
		zap.String("candidate_id", candidateID),
		zap.Int("considered", len(postings)),
		zap.Int("changed", changed),
	)
	return changed, nil
}

func (o *Orchestrator) loadCriteria(ctx context.Context, candidateID string) (model.Criteria, error) {
	profile, err := o.store.GetCandidate(ctx, candidateID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Criteria{}, fmt.Errorf("candidate %q: %w", candidateID, model.ErrNoCriteriaConfigured)
	}
	if err != nil {
		return model.Criteria{}, fmt.Errorf("load candidate: %w", err)
	}
	return profile.Criteria()
}

// sourcesForRun returns the adapters in priority order followed by every
// fetchable feed, ordered by name.
func (o *Orchestrator) sourcesForRun(ctx context.Context, log *zap.Logger) []scraper.Source {
	sources := append([]scraper.Source(nil), o.sources...)

	feeds, err := o.store.ListFeeds(ctx)
	if err != nil {
		log.Warn("list feeds failed, skipping feeds", zap.Error(err))
		return sources
	}
	for _, f := range feeds {
		if !f.Fetchable() {
			continue
		}
		sources = append(sources, feed.NewSource(f, o.feeds, o.opts.SourceTimeout))
	}
	return sources
}

// fetchAll processes every source and returns one report per source, in the
// same order as sources.
func (o *Orchestrator) fetchAll(
	ctx context.Context,
	sources []scraper.Source,
	criteria model.Criteria,
	known *dedup.KnownSet,
	log *zap.Logger,
) []model.SourceReport {
	reports := make([]model.SourceReport, len(sources))
	keywords := scraper.KeywordSet(criteria.TargetRoles)

	if !o.opts.Parallel {
		for i, src := range sources {
			reports[i] = o.processSource(ctx, src, criteria, keywords, known, log)
		}
		return reports
	}

	var g errgroup.Group
	g.SetLimit(o.opts.ParallelLimit)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			reports[i] = o.processSource(ctx, src, criteria, keywords, known, log)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// processSource fetches one source and persists its new postings.
func (o *Orchestrator) processSource(
	ctx context.Context,
	src scraper.Source,
	criteria model.Criteria,
	keywords map[string]struct{},
	known *dedup.KnownSet,
	log *zap.Logger,
) model.SourceReport {
	info := src.Info()
	report := model.SourceReport{Name: info.Name, Kind: info.Kind, Attempted: true}
	log = log.With(zap.String("source", info.Name))

	fetchCtx, cancel := context.WithTimeout(ctx, o.opts.SourceTimeout)
	raws, err := src.Fetch(fetchCtx, criteria)
	cancel()
	if err != nil {
		report.Error = err.Error()
		report.ErrorKind = string(scraper.KindOf(err))
		log.Warn("source failed, continuing", zap.String("kind", report.ErrorKind), zap.Error(err))
		return report
	}
	report.Found = len(raws)

	now := o.now()
	for _, raw := range raws {
		p := normalize.Posting(raw, info, now)
		if err := p.Validate(); err != nil {
			report.Filtered++
			log.Debug("posting dropped: failed validation", zap.Error(err))
			continue
		}

		if o.opts.Score {
			p.MatchScore = scoring.Score(&p, criteria)
			if p.MatchScore < scoring.MatchThreshold {
				report.Filtered++
				log.Debug("posting below match threshold",
					zap.String("title", logger.Truncate(p.Title, 60)),
					zap.Int("score", p.MatchScore),
				)
				continue
			}
		} else if info.Kind == model.SourceKindRSSFeed && !scraper.MatchesKeywords(p.Title, p.Description, keywords) {
			report.Filtered++
			continue
		}

		if !known.Admit(p.SourceURL) {
			report.Duplicates++
			continue
		}

		created, err := o.store.CreatePosting(ctx, &p)
		if err != nil {
			known.Forget(p.SourceURL)
			report.Error = err.Error()
			report.ErrorKind = storeErrorKind
			log.Error("persist posting failed", zap.String("url", p.SourceURL), zap.Error(err))
			continue
		}
		if !created {
			report.Duplicates++
			continue
		}
		report.Created++
	}

	log.Info("source done",
		zap.Int("found", report.Found),
		zap.Int("created", report.Created),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("filtered", report.Filtered),
	)
	return report
}

// recordFeed writes the feed's health after its fetch attempt.
func (o *Orchestrator) recordFeed(ctx context.Context, f model.Feed, r model.SourceReport, log *zap.Logger) {
	now := o.now().UTC()
	f.LastRefreshedAt = &now
	if r.Error != "" && r.ErrorKind != storeErrorKind {
		f.Status = model.FeedError
		f.LastError = r.Error
	} else {
		f.Status = model.FeedActive
		f.LastError = ""
		f.PostingsFound += r.Found
	}

	if err := o.store.UpdateFeed(ctx, f); err != nil {
		log.Warn("update feed failed", zap.String("feed", f.Name), zap.Error(err))
	}
	o.metrics.ObserveFeed(f)
}

// finish moves run into its terminal state, persists it, and emits the
// completion event and metrics. run is left untouched when the store rejects
// the update, so the caller can still fail it.
func (o *Orchestrator) finish(ctx context.Context, run *model.Run, status model.RunStatus, errMsg string) error {
	if !lifecycle.IsRunTransitionAllowed(run.Status, status) {
		return fmt.Errorf("finish run %s: %w", run.ID, &lifecycle.TransitionError{From: string(run.Status), To: string(status)})
	}

	finished := o.now().UTC()
	done := *run
	done.Status = status
	done.Error = errMsg
	done.FinishedAt = &finished
	done.Duration = finished.Sub(run.StartedAt)

	if err := o.store.FinishRun(ctx, &done); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	*run = done

	if err := o.events.RunFinished(ctx, run); err != nil {
		o.log.Warn("publish run event failed", zap.String("run_id", run.ID), zap.Error(err))
	}
	o.metrics.ObserveRun(status, run.Duration)
	return nil
}
