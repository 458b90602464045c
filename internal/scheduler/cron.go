package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Cron runs named jobs on standard five-field cron schedules.
type Cron struct {
	cron    *cron.Cron
	ctx     context.Context
	timeout time.Duration
	logger  *slog.Logger
}

// NewCron evaluates schedules in loc. A run that is still going when its next
// tick fires causes that tick to be skipped.
func NewCron(loc *time.Location, logger *slog.Logger) *Cron {
	return &Cron{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		ctx:     context.Background(),
		timeout: 10 * time.Minute,
		logger:  logger,
	}
}

// Add registers job under name. It must be called before Start.
func (c *Cron) Add(name, spec string, job func(ctx context.Context) error) error {
	_, err := c.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			c.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		c.logger.Info("scheduled job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("add %s job: %w", name, err)
	}

	c.logger.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

// Start runs the registered jobs until ctx is cancelled, then waits for any
// running job to return.
func (c *Cron) Start(ctx context.Context) error {
	c.ctx = ctx
	c.cron.Start()

	<-ctx.Done()

	<-c.cron.Stop().Done()
	c.logger.Info("cron stopped")
	return ctx.Err()
}
