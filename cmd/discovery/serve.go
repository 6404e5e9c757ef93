package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobmate/exec-discovery/internal/api"
	"jobmate/exec-discovery/internal/scheduler"
)

const (
	shutdownTimeout = 10 * time.Second
	// writeMargin is added to the run budget for synchronous run requests.
	writeMargin = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run discovery on a schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := setup(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	log := s.log

	log.Info("starting the discovery service", zap.String("version", version))

	// ── Scheduler ────────────────────────────────────────────────────────────
	sched := scheduler.New(s.orch, s.cfg.ScrapeIntervalHours, log)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	if !s.cfg.LogDebug && !debugLog {
		gin.SetMode(gin.ReleaseMode)
	}
	h := api.NewHandler(s.repo, s.orch, s.cfg.ScoreInline, log)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", s.cfg.Port),
		Handler:      api.NewRouter(h, s.metrics.Handler(), version),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.runBudget + writeMargin,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	log.Info("waiting for background runs")
	s.orch.Wait()
	return nil
}
