package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"ainews/internal/domain"
)

const metricsColumns = `id, story_id, email_opens, link_clicks, time_spent, feedback_score, updated_at`

// CreateStoryMetrics inserts a zeroed metrics row. Callers must not create a
// second row for the same story.
func (s *StoryStore) CreateStoryMetrics(ctx context.Context, storyID int64) (*domain.StoryMetrics, error) {
	query := `
		INSERT INTO story_metrics (story_id)
		VALUES ($1)
		RETURNING ` + metricsColumns

	var metrics domain.StoryMetrics
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &metrics, query, storyID); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// UpdateStoryMetrics overwrites the fields set in update and leaves the rest
// untouched. It returns nil, nil when the story has no metrics row.
func (s *StoryStore) UpdateStoryMetrics(ctx context.Context, storyID int64, update domain.MetricsUpdate) (*domain.StoryMetrics, error) {
	query := `
		UPDATE story_metrics SET
			email_opens = COALESCE($2, email_opens),
			link_clicks = COALESCE($3, link_clicks),
			time_spent = COALESCE($4, time_spent),
			feedback_score = COALESCE($5, feedback_score),
			updated_at = NOW()
		WHERE id = (
			SELECT id FROM story_metrics WHERE story_id = $1 ORDER BY id LIMIT 1
		)
		RETURNING ` + metricsColumns

	var metrics domain.StoryMetrics
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &metrics, query,
		storyID,
		update.EmailOpens,
		update.LinkClicks,
		update.TimeSpent,
		update.FeedbackScore,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &metrics, nil
}

func (s *StoryStore) GetStoryMetrics(ctx context.Context, storyID int64) (*domain.StoryMetrics, error) {
	query := `
		SELECT ` + metricsColumns + `
		FROM story_metrics
		WHERE story_id = $1
		ORDER BY id
		LIMIT 1`

	var metrics domain.StoryMetrics
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &metrics, query, storyID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &metrics, nil
}

// SourceEngagement sums engagement counters over every story from source.
func (s *StoryStore) SourceEngagement(ctx context.Context, source string) (domain.Engagement, error) {
	query := `
		SELECT
			COUNT(DISTINCT st.id) AS stories,
			COALESCE(SUM(m.email_opens), 0) AS email_opens,
			COALESCE(SUM(m.link_clicks), 0) AS link_clicks
		FROM stories st
		INNER JOIN story_metrics m ON m.story_id = st.id
		WHERE st.source = $1`

	var engagement domain.Engagement
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &engagement, query, source)
	return engagement, err
}
