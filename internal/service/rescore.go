package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"ainews/internal/domain"
	"ainews/internal/publisher"
	"ainews/internal/scoring"
)

const scoreEpsilon = 1e-9

// RescoreService replaces ingestion-time estimates with the full recalculation.
// Until a story has been opened at least once its ingestion-time estimate is
// kept as a floor, since the recalculation has no engagement to go on.
type RescoreService struct {
	stories   StoryStore
	scorer    Scorer
	publisher Publisher
	pageSize  int
	logger    *slog.Logger
	now       func() time.Time
}

// NewRescoreService builds the recalculation job. pub may be nil.
func NewRescoreService(stories StoryStore, scorer Scorer, pub Publisher, pageSize int, logger *slog.Logger) *RescoreService {
	if pageSize < 1 {
		pageSize = 100
	}
	return &RescoreService{
		stories:   stories,
		scorer:    scorer,
		publisher: pub,
		pageSize:  pageSize,
		logger:    logger.With("component", "rescore"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Rescore walks every story newest first and overwrites scores that changed.
// A failing signal lookup skips that story; store errors abort the run.
func (s *RescoreService) Rescore(ctx context.Context) (*domain.RescoreStats, error) {
	startTime := time.Now()
	stats := &domain.RescoreStats{}

	for skip := 0; ; skip += s.pageSize {
		page, err := s.stories.GetStories(ctx, skip, s.pageSize, -math.MaxFloat64)
		if err != nil {
			return stats, fmt.Errorf("get stories: %w", err)
		}

		for i := range page {
			if err := s.rescoreOne(ctx, &page[i], stats); err != nil {
				return stats, err
			}
		}

		if len(page) < s.pageSize {
			break
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("rescore completed",
		"scanned", stats.Scanned,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *RescoreService) rescoreOne(ctx context.Context, story *domain.Story, stats *domain.RescoreStats) error {
	stats.Scanned++

	score, err := s.scorer.Score(ctx, story)
	if err != nil {
		s.logger.Warn("failed to score story", "story_id", story.ID, "error", err)
		stats.Errors++
		return nil
	}

	engaged, err := s.hasEngagement(ctx, story.ID)
	if err != nil {
		return err
	}
	if !engaged {
		score = math.Max(score, scoring.InitialScore(story.PublishedAt, s.now()))
	}

	if math.Abs(score-story.InterestingScore) < scoreEpsilon {
		stats.Unchanged++
		return nil
	}

	updated, err := s.stories.UpdateStoryScore(ctx, story.ID, score)
	if err != nil {
		return fmt.Errorf("update story score: %w", err)
	}
	if updated == nil {
		// deleted between read and write
		stats.Unchanged++
		return nil
	}
	stats.Updated++

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, updated, publisher.ActionRescored); err != nil {
			s.logger.Warn("failed to publish story", "story_id", updated.ID, "error", err)
		}
	}
	return nil
}

func (s *RescoreService) hasEngagement(ctx context.Context, storyID int64) (bool, error) {
	metrics, err := s.stories.GetStoryMetrics(ctx, storyID)
	if err != nil {
		return false, fmt.Errorf("get story metrics: %w", err)
	}
	return metrics != nil && metrics.EmailOpens > 0, nil
}
