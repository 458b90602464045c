package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"ainews/internal/domain"
)

type StoryStore interface {
	CreateStory(ctx context.Context, story domain.NewStory) (*domain.Story, error)
	GetStories(ctx context.Context, skip, limit int, minScore float64) ([]domain.Story, error)
	GetStoryByURL(ctx context.Context, url string) (*domain.Story, error)
	UpdateStoryScore(ctx context.Context, id int64, score float64) (*domain.Story, error)
	CreateStoryMetrics(ctx context.Context, storyID int64) (*domain.StoryMetrics, error)
	GetStoryMetrics(ctx context.Context, storyID int64) (*domain.StoryMetrics, error)
	UpdateStoryMetrics(ctx context.Context, storyID int64, update domain.MetricsUpdate) (*domain.StoryMetrics, error)
}

type Source interface {
	ID() string
	Name() string
	FetchArticles(ctx context.Context, limit int) ([]domain.NewStory, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, story *domain.Story, action string) error
	Close() error
}

type Scorer interface {
	Score(ctx context.Context, story *domain.Story) (float64, error)
}
