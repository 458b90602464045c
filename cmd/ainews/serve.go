package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"ainews/internal/api"
	"ainews/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with scheduled ingestion, rescoring and daily digests",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	logger := a.logger

	loc, err := cfg.Digest.Location()
	if err != nil {
		return err
	}

	ingestService := a.ingestService()
	digestService, err := a.digestService()
	if err != nil {
		return err
	}
	rescoreService, err := a.rescoreService()
	if err != nil {
		return err
	}

	jobs := scheduler.NewCron(loc, logger)
	if err := jobs.Add("digest", cfg.Digest.Schedule, func(ctx context.Context) error {
		_, err := digestService.GenerateAndSave(ctx, cfg.Digest.MinScore, cfg.Digest.Limit, cfg.Digest.Directory)
		return err
	}); err != nil {
		return err
	}
	if err := jobs.Add("rescore", cfg.Scoring.RescoreSchedule, func(ctx context.Context) error {
		_, err := rescoreService.Rescore(ctx)
		return err
	}); err != nil {
		return err
	}

	sched := scheduler.NewScheduler(ingestService, cfg.Ingest.Interval, 0, logger)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(cfg.Server.AllowedOrigins, api.Handlers{
		News:    api.NewNewsHandler(a.stories, ingestService, cfg.Ingest.Backfill(), logger),
		Digest:  api.NewDigestHandler(digestService, logger),
		Stories: api.NewStoryHandler(a.stories, logger),
		DB:      a.db,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := jobs.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("cron error", "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting ai news aggregator",
			"addr", cfg.Server.Addr,
			"ingest_interval", cfg.Ingest.Interval,
			"digest_schedule", cfg.Digest.Schedule,
			"rescore_schedule", cfg.Scoring.RescoreSchedule,
		)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			cancel()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	cancel()
	wg.Wait()
	logger.Info("stopped")
	return nil
}
