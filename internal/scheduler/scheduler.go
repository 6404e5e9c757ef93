// Package scheduler wires up the cron job that periodically triggers discovery
// for all active candidates.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner runs one discovery cycle over every active candidate.
type Runner interface {
	RunAll(ctx context.Context) error
}

// Scheduler wraps robfig/cron and manages the discovery loop.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string // cron spec, e.g. "@every 6h"
	log    *zap.Logger

	wg sync.WaitGroup
}

// New creates a Scheduler that fires every intervalHours hours. A cycle that
// is still running when the next tick fires causes that tick to be skipped,
// so runs never overlap.
func New(runner Runner, intervalHours int, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
		log:    log,
	}
}

// Spec returns the cron expression the scheduler was built with.
func (s *Scheduler) Spec() string { return s.spec }

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so postings are populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	job := cron.FuncJob(func() { s.runCycle(ctx) })
	if _, err := s.cron.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("cron.AddJob: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", zap.String("spec", s.spec))

	// Run immediately on startup (non-blocking)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runCycle(ctx)
	}()

	return nil
}

// Stop shuts down the scheduler and waits for running cycles to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("cron stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	s.log.Info("discovery cycle started")
	if err := s.runner.RunAll(ctx); err != nil {
		s.log.Error("discovery cycle failed", zap.Error(err))
		return
	}
	s.log.Info("discovery cycle complete")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
