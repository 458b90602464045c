package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ainews/internal/domain"
	"ainews/internal/publisher"
	"ainews/internal/scoring"
)

// IngestService pulls articles from a feed and stores the ones whose URL is new.
type IngestService struct {
	source    Source
	stories   StoryStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewIngestService wires the ingestion pipeline. pub may be nil.
func NewIngestService(
	source Source,
	stories StoryStore,
	txManager TransactionManager,
	pub Publisher,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		source:    source,
		stories:   stories,
		txManager: txManager,
		publisher: pub,
		logger:    logger.With("source", source.ID()),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Ingest fetches up to limit articles (limit <= 0 uses the source default) and
// inserts each unseen URL with its ingestion-time score and a zeroed metrics row.
func (s *IngestService) Ingest(ctx context.Context, limit int) (*domain.IngestStats, error) {
	startTime := time.Now()
	s.logger.Info("starting ingestion", "source_name", s.source.Name(), "limit", limit)

	articles, err := s.source.FetchArticles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}

	s.logger.Info("fetched articles from source", "count", len(articles))

	stats := &domain.IngestStats{
		Source:  s.source.ID(),
		Fetched: len(articles),
	}

	for i := range articles {
		story, err := s.ingestOne(ctx, articles[i])
		if err != nil {
			return stats, err
		}
		if story == nil {
			stats.Skipped++
			continue
		}
		stats.New++

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, story, publisher.ActionCreated); err != nil {
				s.logger.Warn("failed to publish story", "story_id", story.ID, "error", err)
				stats.Errors++
			} else {
				stats.Published++
			}
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("ingestion completed",
		"new", stats.New,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// ingestOne returns nil, nil when the URL is already stored.
func (s *IngestService) ingestOne(ctx context.Context, article domain.NewStory) (*domain.Story, error) {
	existing, err := s.stories.GetStoryByURL(ctx, article.URL)
	if err != nil {
		return nil, fmt.Errorf("lookup story by url: %w", err)
	}
	if existing != nil {
		s.logger.Debug("duplicate story skipped", "url", article.URL)
		return nil, nil
	}

	article.InterestingScore = scoring.InitialScore(article.PublishedAt, s.now())

	var created *domain.Story
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		story, err := s.stories.CreateStory(txCtx, article)
		if err != nil {
			return fmt.Errorf("create story: %w", err)
		}

		if _, err := s.stories.CreateStoryMetrics(txCtx, story.ID); err != nil {
			return fmt.Errorf("create story metrics: %w", err)
		}

		created = story
		return nil
	})
	if errors.Is(err, domain.ErrStoryExists) {
		s.logger.Debug("story inserted concurrently, skipped", "url", article.URL)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return created, nil
}
