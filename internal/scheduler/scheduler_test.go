package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ainews/internal/domain"
)

type countingIngester struct {
	calls atomic.Int32
	limit atomic.Int32
	err   error
}

func (c *countingIngester) Ingest(_ context.Context, limit int) (*domain.IngestStats, error) {
	c.calls.Add(1)
	c.limit.Store(int32(limit))
	if c.err != nil {
		return nil, c.err
	}
	return &domain.IngestStats{Source: "newsapi", Fetched: 10, New: 4, Skipped: 6}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	ingester := &countingIngester{}
	sched := NewScheduler(ingester, 20*time.Millisecond, 7, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	assert.Eventually(t, func() bool { return ingester.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(7), ingester.limit.Load())
}

func TestScheduler_KeepsRunningAfterFailure(t *testing.T) {
	ingester := &countingIngester{err: errors.New("NEWS_API_KEY not found in environment variables")}
	sched := NewScheduler(ingester, 10*time.Millisecond, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sched.Start(ctx) }()

	assert.Eventually(t, func() bool { return ingester.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_LogsIngestStats(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	sched := NewScheduler(&countingIngester{}, time.Hour, 0, logger)

	sched.runIngest(context.Background())

	out := buf.String()
	assert.Contains(t, out, "scheduled ingest finished")
	assert.Contains(t, out, "source=newsapi")
	assert.Contains(t, out, "fetched=10")
	assert.Contains(t, out, "new=4")
	assert.Contains(t, out, "skipped=6")
}

func TestCron_InvalidSpec(t *testing.T) {
	c := NewCron(time.UTC, testLogger())

	err := c.Add("digest", "not a schedule", func(context.Context) error { return nil })
	assert.ErrorContains(t, err, "add digest job")
}

func TestCron_RunsJob(t *testing.T) {
	c := NewCron(time.UTC, testLogger())

	var runs atomic.Int32
	require.NoError(t, c.Add("rescore", "@every 1s", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		if hasDeadline {
			runs.Add(1)
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cron did not stop")
	}
}
