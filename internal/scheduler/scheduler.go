package scheduler

import (
	"context"
	"log/slog"
	"time"

	"ainews/internal/domain"
)

// Ingester defines the interface for ingestion runs.
type Ingester interface {
	Ingest(ctx context.Context, limit int) (*domain.IngestStats, error)
}

type Scheduler struct {
	ingester Ingester
	interval time.Duration
	limit    int
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler runs ingester every interval. A limit of 0 leaves the page size
// to the source.
func NewScheduler(ingester Ingester, interval time.Duration, limit int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ingester: ingester,
		interval: interval,
		limit:    limit,
		timeout:  5 * time.Minute,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runIngest(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runIngest(ctx)
		}
	}
}

func (s *Scheduler) runIngest(ctx context.Context) {
	ingestCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stats, err := s.ingester.Ingest(ingestCtx, s.limit)
	if err != nil {
		s.logger.Error("ingest failed", "error", err)
		return
	}

	s.logger.Info("scheduled ingest finished",
		"source", stats.Source,
		"fetched", stats.Fetched,
		"new", stats.New,
		"skipped", stats.Skipped,
		"publish_errors", stats.Errors,
	)
}
