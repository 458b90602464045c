package api

import (
	"time"

	"ainews/internal/domain"
)

type NewsQuery struct {
	Skip     int     `form:"skip,default=0" binding:"min=0"`
	Limit    int     `form:"limit,default=10" binding:"min=1,max=100"`
	MinScore float64 `form:"min_score,default=0" binding:"min=0"`
}

type DigestQuery struct {
	MinScore float64 `form:"min_score,default=0.7" binding:"min=0"`
	Limit    int     `form:"limit,default=10" binding:"min=1,max=100"`
}

type StoryResponse struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	URL              string  `json:"url"`
	Source           string  `json:"source"`
	InterestingScore float64 `json:"interesting_score"`
	PublishedAt      string  `json:"published_at"`
	CreatedAt        string  `json:"created_at"`
}

func newStoryResponse(s domain.Story) StoryResponse {
	return StoryResponse{
		ID:               s.ID,
		Title:            s.Title,
		Description:      s.Description,
		URL:              s.URL,
		Source:           s.Source,
		InterestingScore: s.InterestingScore,
		PublishedAt:      s.PublishedAt.Format(time.RFC3339),
		CreatedAt:        s.CreatedAt.Format(time.RFC3339),
	}
}

type DigestResponse struct {
	Content     string  `json:"content"`
	GeneratedAt string  `json:"generated_at"`
	StoryCount  int     `json:"story_count"`
	MinScore    float64 `json:"min_score"`
}

type ScoreRequest struct {
	Score *float64 `json:"score" binding:"required,min=0,max=1"`
}

type MetricsRequest struct {
	EmailOpens    *int64   `json:"email_opens" binding:"omitempty,min=0"`
	LinkClicks    *int64   `json:"link_clicks" binding:"omitempty,min=0"`
	TimeSpent     *float64 `json:"time_spent" binding:"omitempty,min=0"`
	FeedbackScore *float64 `json:"feedback_score"`
}

func (r MetricsRequest) update() domain.MetricsUpdate {
	return domain.MetricsUpdate{
		EmailOpens:    r.EmailOpens,
		LinkClicks:    r.LinkClicks,
		TimeSpent:     r.TimeSpent,
		FeedbackScore: r.FeedbackScore,
	}
}

type MetricsResponse struct {
	StoryID       int64    `json:"story_id"`
	EmailOpens    int64    `json:"email_opens"`
	LinkClicks    int64    `json:"link_clicks"`
	TimeSpent     *float64 `json:"time_spent"`
	FeedbackScore *float64 `json:"feedback_score"`
	UpdatedAt     string   `json:"updated_at"`
}

func newMetricsResponse(m *domain.StoryMetrics) MetricsResponse {
	return MetricsResponse{
		StoryID:       m.StoryID,
		EmailOpens:    m.EmailOpens,
		LinkClicks:    m.LinkClicks,
		TimeSpent:     m.TimeSpent,
		FeedbackScore: m.FeedbackScore,
		UpdatedAt:     m.UpdatedAt.Format(time.RFC3339),
	}
}
