package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"ainews/internal/domain"
)

const uniqueViolation = "23505"

const storyColumns = `id, title, description, url, source, interesting_score,
	published_at, created_at, used_in_email, content`

type StoryStore struct {
	db *sqlx.DB
}

func NewStoryStore(db *sqlx.DB) *StoryStore {
	return &StoryStore{db: db}
}

// CreateStory inserts a story without checking for an existing URL. A conflict
// on the unique url index is reported as domain.ErrStoryExists.
func (s *StoryStore) CreateStory(ctx context.Context, story domain.NewStory) (*domain.Story, error) {
	query := `
		INSERT INTO stories (
			title, description, url, source, interesting_score, published_at, content
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING ` + storyColumns

	var created domain.Story
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &created, query,
		story.Title,
		story.Description,
		story.URL,
		story.Source,
		story.InterestingScore,
		story.PublishedAt,
		story.Content,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", domain.ErrStoryExists, story.URL)
		}
		return nil, err
	}

	return &created, nil
}

// GetStories returns stories scoring at least minScore, newest first, with
// offset pagination applied after ordering.
func (s *StoryStore) GetStories(ctx context.Context, skip, limit int, minScore float64) ([]domain.Story, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE interesting_score >= $1
		ORDER BY published_at DESC, id DESC
		OFFSET $2
		LIMIT $3`

	stories := []domain.Story{}
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &stories, query, minScore, skip, limit)
	if err != nil {
		return nil, err
	}
	return stories, nil
}

func (s *StoryStore) GetStoryByURL(ctx context.Context, url string) (*domain.Story, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE url = $1
		ORDER BY id
		LIMIT 1`

	return s.getOne(ctx, query, url)
}

func (s *StoryStore) GetStoryByID(ctx context.Context, id int64) (*domain.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`

	return s.getOne(ctx, query, id)
}

// UpdateStoryScore overwrites the score. It returns nil, nil when no story has the id.
func (s *StoryStore) UpdateStoryScore(ctx context.Context, id int64, score float64) (*domain.Story, error) {
	query := `
		UPDATE stories SET interesting_score = $2
		WHERE id = $1
		RETURNING ` + storyColumns

	return s.getOne(ctx, query, id, score)
}

func (s *StoryStore) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Story, error) {
	var story domain.Story
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &story, query, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}
