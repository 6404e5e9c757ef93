package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"jobmate/exec-discovery/internal/config"
	"jobmate/exec-discovery/internal/db"
	"jobmate/exec-discovery/internal/discovery"
	"jobmate/exec-discovery/internal/events"
	"jobmate/exec-discovery/internal/logger"
	"jobmate/exec-discovery/internal/metrics"
	"jobmate/exec-discovery/internal/scraper"
	"jobmate/exec-discovery/internal/store"
)

// service bundles the wired components shared by every command.
type service struct {
	cfg     *config.Config
	log     *zap.Logger
	repo    store.Repository
	orch    *discovery.Orchestrator
	metrics *metrics.Metrics
	closers []func()

	// runBudget bounds a sequential run: every adapter and feed at its timeout.
	runBudget time.Duration
}

func (s *service) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	_ = s.log.Sync()
}

// setup loads configuration and connects every dependency.
func setup(ctx context.Context) (*service, error) {
	cfg, err := config.Load(cfgFile, memory)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(jsonLog || cfg.LogJSON, debugLog || cfg.LogDebug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	s := &service{cfg: cfg, log: log, metrics: metrics.New(prometheus.NewRegistry())}

	// ── Storage ──────────────────────────────────────────────────────────────
	if cfg.Memory {
		log.Info("using in-memory store")
		s.repo = store.NewMemory()
	} else {
		log.Info("connecting to PostgreSQL")
		sqlDB, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.closers = append(s.closers, func() { _ = sqlDB.Close() })

		pg := store.NewPostgres(sqlDB)
		if err := pg.Migrate(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		s.repo = pg
	}

	if err := s.seed(ctx); err != nil {
		s.Close()
		return nil, err
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	if rdb != nil {
		s.closers = append(s.closers, func() { _ = rdb.Close() })
	} else {
		log.Info("REDIS_URL not set, run events disabled")
	}

	// ── Discovery ────────────────────────────────────────────────────────────
	sources := scraper.Registry(scraper.Credentials{
		AdzunaAppID:   cfg.AdzunaAppID,
		AdzunaAppKey:  cfg.AdzunaAppKey,
		AdzunaCountry: cfg.AdzunaCountry,
		JSearchKey:    cfg.JSearchKey,
		SerpAPIKey:    cfg.SerpAPIKey,
		TheMuseKey:    cfg.TheMuseKey,
	}, scraper.ClientOptions{
		Timeout:       cfg.AdapterTimeout,
		RatePerSecond: cfg.AdapterRatePerSecond,
	}, log)

	sourceTimeout := cfg.AdapterTimeout * scraper.MaxQueryRoles
	s.runBudget = sourceTimeout * time.Duration(len(sources)+len(cfg.Feeds))

	s.orch = discovery.New(discovery.Deps{
		Store:   s.repo,
		Sources: sources,
		Events:  events.NewPublisher(rdb, log),
		Metrics: s.metrics,
		Logger:  log,
	}, discovery.Options{
		Score:         cfg.ScoreInline,
		Parallel:      cfg.ParallelSources,
		KnownWindow:   cfg.KnownLocatorWindow,
		SourceTimeout: sourceTimeout,
	})
	return s, nil
}

// seed registers configured feeds and candidate profiles.
func (s *service) seed(ctx context.Context) error {
	for _, fc := range s.cfg.Feeds {
		f := fc.Feed()
		if err := s.repo.EnsureFeed(ctx, f); err != nil {
			return fmt.Errorf("register feed %s: %w", fc.Name, err)
		}
		s.log.Debug("feed registered", zap.String("feed", f.Name), zap.String("status", string(f.Status)))
	}
	for _, cc := range s.cfg.Candidates {
		if err := s.repo.SaveCandidate(ctx, cc.Profile()); err != nil {
			return fmt.Errorf("seed candidate %s: %w", cc.ID, err)
		}
	}
	return nil
}
